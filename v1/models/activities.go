package models

import (
	"fmt"
	"time"
)

// Activity represents a scheduled event with a capacity limit and an
// optional age window ("actividad").
type Activity struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"column:name;size:200;not null" json:"name"`
	Description *string   `gorm:"column:description" json:"description,omitempty"`
	StartsAt    time.Time `gorm:"column:starts_at;not null" json:"startsAt"`
	MaxCapacity int       `gorm:"column:max_capacity;not null" json:"maxCapacity"`
	MinAge      *int      `gorm:"column:min_age" json:"minAge,omitempty"`
	MaxAge      *int      `gorm:"column:max_age" json:"maxAge,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at;not null" json:"createdAt"`

	Registrations []Registration `gorm:"foreignKey:ActivityID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName sets the table name for GORM
func (Activity) TableName() string {
	return "activities"
}

// HasAgeRestriction reports whether the activity defines an age window
func (a *Activity) HasAgeRestriction() bool {
	return a.MinAge != nil || a.MaxAge != nil
}

// IsPast reports whether the activity start time has passed
func (a *Activity) IsPast(now time.Time) bool {
	return !a.StartsAt.After(now)
}

// CheckAge validates a registrant birth year against the age window.
// Returns nil when the activity has no age restriction. An unknown birth
// year is rejected whenever a window is present.
func (a *Activity) CheckAge(birthYear *int, now time.Time) error {
	if !a.HasAgeRestriction() {
		return nil
	}
	if birthYear == nil {
		return fmt.Errorf("cannot verify age: birth year is missing")
	}
	age := now.Year() - *birthYear
	if a.MinAge != nil && age < *a.MinAge {
		return fmt.Errorf("minimum age is %d, registrant is %d", *a.MinAge, age)
	}
	if a.MaxAge != nil && age > *a.MaxAge {
		return fmt.Errorf("maximum age is %d, registrant is %d", *a.MaxAge, age)
	}
	return nil
}

// Registration links a member, or one of the member's dependents, to an
// activity ("inscripción"). DependentID is nil when the member registers
// themselves. The (member, activity, dependent) triple is unique.
type Registration struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	MemberID     uint      `gorm:"column:member_id;not null;uniqueIndex:idx_registration_triple" json:"memberId"`
	ActivityID   uint      `gorm:"column:activity_id;not null;uniqueIndex:idx_registration_triple" json:"activityId"`
	DependentID  *uint     `gorm:"column:dependent_id;uniqueIndex:idx_registration_triple" json:"dependentId,omitempty"`
	RegisteredAt time.Time `gorm:"column:registered_at;not null" json:"registeredAt"`
	Attended     bool      `gorm:"column:attended;not null;default:false" json:"attended"`

	Dependent *Dependent `gorm:"foreignKey:DependentID" json:"-"`
	Member    *Member    `gorm:"foreignKey:MemberID" json:"-"`
}

// TableName sets the table name for GORM
func (Registration) TableName() string {
	return "registrations"
}

// CreateActivityRequest is the payload for activity creation and edits
type CreateActivityRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	StartsAt    string  `json:"startsAt" validate:"required"`
	MaxCapacity int     `json:"maxCapacity" validate:"required,min=1"`
	MinAge      *int    `json:"minAge" validate:"omitempty,min=0,max=120"`
	MaxAge      *int    `json:"maxAge" validate:"omitempty,min=0,max=120"`
}

// ActivityResponse is the API projection of an Activity, including the
// registration counters derived from the current state.
type ActivityResponse struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	StartsAt       string  `json:"startsAt"`
	MaxCapacity    int     `json:"maxCapacity"`
	MinAge         *int    `json:"minAge,omitempty"`
	MaxAge         *int    `json:"maxAge,omitempty"`
	CreatedAt      string  `json:"createdAt"`
	Registered     int     `json:"registered"`
	RemainingSpots int     `json:"remainingSpots"`
}

// NewActivityResponse builds the API projection of a with its current
// registration count.
func NewActivityResponse(a *Activity, registered int) *ActivityResponse {
	return &ActivityResponse{
		ID:             a.ID,
		Name:           a.Name,
		Description:    a.Description,
		StartsAt:       a.StartsAt.Format(time.RFC3339),
		MaxCapacity:    a.MaxCapacity,
		MinAge:         a.MinAge,
		MaxAge:         a.MaxAge,
		CreatedAt:      a.CreatedAt.Format(time.RFC3339),
		Registered:     registered,
		RemainingSpots: a.MaxCapacity - registered,
	}
}

// RegisterPayload selects who is being registered for an activity.
// A nil DependentID registers the authenticated member themselves.
type RegisterPayload struct {
	DependentID *uint `json:"dependentId"`
}

// RosterEntryResponse is one row of an activity's registration roster
type RosterEntryResponse struct {
	RegistrationID uint   `json:"registrationId"`
	Name           string `json:"name"`
	Kind           string `json:"kind"` // "member" or "dependent"
	MemberNumber   string `json:"memberNumber,omitempty"`
	BenefitNumber  string `json:"benefitNumber,omitempty"`
	Attended       bool   `json:"attended"`
	RegisteredAt   string `json:"registeredAt"`
}
