package services

import "errors"

// Sentinel errors shared by all services. Handlers map these to HTTP
// status codes; anything else is treated as an internal error.
var (
	// ErrNotFound signals the requested entity does not exist
	ErrNotFound = errors.New("not found")
	// ErrForbidden signals the caller does not own the target entity
	ErrForbidden = errors.New("forbidden")
	// ErrConflict signals a uniqueness or state conflict
	ErrConflict = errors.New("conflict")
	// ErrValidation signals a rejected payload or business rule
	ErrValidation = errors.New("validation failed")
	// ErrAlreadyProcessed signals a decision on a non-pending request
	ErrAlreadyProcessed = errors.New("request already processed")
)
