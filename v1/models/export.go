package models

import "time"

// DataExport is the full-database JSON document produced by the export
// endpoint and consumed by the import endpoint. Collections are keyed by
// name so an import can tolerate missing ones.
type DataExport struct {
	ExportedAt         time.Time           `json:"exportedAt"`
	Version            string              `json:"version"`
	Members            []Member            `json:"members"`
	Dependents         []Dependent         `json:"dependents"`
	Activities         []Activity          `json:"activities"`
	Registrations      []Registration      `json:"registrations"`
	MembershipRequests []MembershipRequest `json:"membershipRequests"`
	RequestDependents  []RequestDependent  `json:"requestDependents"`
}

// ImportMode selects how an import treats existing rows
type ImportMode string

const (
	// ImportModeMerge inserts exported rows, skipping any whose primary
	// key already exists.
	ImportModeMerge ImportMode = "merge"
	// ImportModeReplace wipes all collections before loading the export.
	ImportModeReplace ImportMode = "replace"
)

// ValidImportMode reports whether m is a recognized import mode
func ValidImportMode(m ImportMode) bool {
	return m == ImportModeMerge || m == ImportModeReplace
}

// ImportSummary reports what an import changed per collection
type ImportSummary struct {
	Mode               ImportMode `json:"mode"`
	Members            int        `json:"members"`
	Dependents         int        `json:"dependents"`
	Activities         int        `json:"activities"`
	Registrations      int        `json:"registrations"`
	MembershipRequests int        `json:"membershipRequests"`
	RequestDependents  int        `json:"requestDependents"`
	Skipped            int        `json:"skipped"`
}
