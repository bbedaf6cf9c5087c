package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Member represents an approved association member ("socio"). Board
// accounts ("directiva") share the table but carry no member number.
type Member struct {
	ID            uint       `gorm:"primarykey" json:"id"`
	Name          string     `gorm:"column:name;size:200;not null" json:"name"`
	Username      string     `gorm:"column:username;size:120;not null;uniqueIndex" json:"username"`
	PasswordHash  string     `gorm:"column:password_hash;size:255;not null" json:"-"`
	PasswordPlain string     `gorm:"column:password_plain;size:255" json:"-"`
	Role          string     `gorm:"column:role;size:20;not null" json:"role"`
	JoinedAt      time.Time  `gorm:"column:joined_at;not null" json:"joinedAt"`
	ValidUntil    time.Time  `gorm:"column:valid_until;not null" json:"validUntil"`
	BirthYear     *int       `gorm:"column:birth_year" json:"birthYear,omitempty"`
	BirthDate     *time.Time `gorm:"column:birth_date" json:"birthDate,omitempty"`
	MemberNumber  *string    `gorm:"column:member_number;size:10;uniqueIndex" json:"memberNumber,omitempty"`
	Phone         string     `gorm:"column:phone;size:20" json:"phone,omitempty"`
	Phone2        *string    `gorm:"column:phone2;size:20" json:"phone2,omitempty"`
	PaymentMethod string     `gorm:"column:payment_method;size:20" json:"paymentMethod,omitempty"`
	HouseholdSize int        `gorm:"column:household_size" json:"householdSize,omitempty"`
	Street        string     `gorm:"column:street;size:200" json:"street,omitempty"`
	StreetNumber  string     `gorm:"column:street_number;size:20" json:"streetNumber,omitempty"`
	Floor         *string    `gorm:"column:floor;size:20" json:"floor,omitempty"`
	Town          string     `gorm:"column:town;size:100" json:"town,omitempty"`

	Dependents    []Dependent    `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"-"`
	Registrations []Registration `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName sets the table name for GORM
func (Member) TableName() string {
	return "members"
}

// SetPassword hashes pwd with bcrypt and stores the hash
func (m *Member) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	m.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares pwd against the stored bcrypt hash
func (m *Member) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(pwd))
}

// IsBoard reports whether the account belongs to the board
func (m *Member) IsBoard() bool {
	return m.Role == RoleBoard
}

// IsMember reports whether the account is a regular member
func (m *Member) IsMember() bool {
	return m.Role == RoleMember
}

// Age returns the member's age in whole years relative to now, computed
// from the birth year only, or nil when the birth year is unknown.
func (m *Member) Age(now time.Time) *int {
	if m.BirthYear == nil {
		return nil
	}
	age := now.Year() - *m.BirthYear
	return &age
}

// Expired reports whether the membership validity date has passed
func (m *Member) Expired(now time.Time) bool {
	return now.After(m.ValidUntil)
}

// ExpiringWithin reports whether the membership expires within d from now
// but has not expired yet.
func (m *Member) ExpiringWithin(d time.Duration, now time.Time) bool {
	return m.ValidUntil.After(now) && !m.ValidUntil.After(now.Add(d))
}

// Dependent represents a person registered under a member's household
// ("beneficiario"). Dependents cannot log in; they exist for activity
// registration and reporting.
type Dependent struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	MemberID      uint      `gorm:"column:member_id;not null;index" json:"memberId"`
	Name          string    `gorm:"column:name;size:100;not null" json:"name"`
	FirstSurname  string    `gorm:"column:first_surname;size:100;not null" json:"firstSurname"`
	SecondSurname *string   `gorm:"column:second_surname;size:100" json:"secondSurname,omitempty"`
	BirthYear     int       `gorm:"column:birth_year;not null" json:"birthYear"`
	ValidUntil    time.Time `gorm:"column:valid_until;not null" json:"validUntil"`
	BenefitNumber *string   `gorm:"column:benefit_number;size:15;uniqueIndex" json:"benefitNumber,omitempty"`
}

// TableName sets the table name for GORM
func (Dependent) TableName() string {
	return "dependents"
}

// FullName returns the dependent's display name
func (d *Dependent) FullName() string {
	name := d.Name + " " + d.FirstSurname
	if d.SecondSurname != nil && *d.SecondSurname != "" {
		name += " " + *d.SecondSurname
	}
	return name
}

// Age returns the dependent's age in whole years relative to now
func (d *Dependent) Age(now time.Time) int {
	return now.Year() - d.BirthYear
}

// CreateMemberRequest is the payload for direct member creation by the board
type CreateMemberRequest struct {
	Name          string  `json:"name" validate:"required"`
	FirstSurname  string  `json:"firstSurname" validate:"required"`
	SecondSurname string  `json:"secondSurname"`
	Username      string  `json:"username" validate:"required,min=3"`
	Password      string  `json:"password" validate:"required,min=6"`
	Phone         string  `json:"phone" validate:"required,len=9,numeric"`
	BirthYear     int     `json:"birthYear" validate:"required"`
	PaymentMethod string  `json:"paymentMethod" validate:"required"`
	HouseholdSize int     `json:"householdSize" validate:"required,min=1"`
	Street        string  `json:"street" validate:"required"`
	StreetNumber  string  `json:"streetNumber" validate:"required"`
	Floor         *string `json:"floor"`
	Town          string  `json:"town" validate:"required"`
}

// UpdateMemberRequest is the payload for member edits. Nil fields are
// left unchanged.
type UpdateMemberRequest struct {
	Name         *string `json:"name"`
	Username     *string `json:"username" validate:"omitempty,min=3"`
	Password     *string `json:"password" validate:"omitempty,min=6"`
	BirthYear    *int    `json:"birthYear"`
	Street       *string `json:"street"`
	StreetNumber *string `json:"streetNumber"`
	Floor        *string `json:"floor"`
	Town         *string `json:"town"`
}

// MemberResponse is the API projection of a Member
type MemberResponse struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	Username     string  `json:"username"`
	Role         string  `json:"role"`
	JoinedAt     string  `json:"joinedAt"`
	ValidUntil   string  `json:"validUntil"`
	BirthYear    *int    `json:"birthYear,omitempty"`
	MemberNumber *string `json:"memberNumber,omitempty"`
	Phone        string  `json:"phone,omitempty"`
	Phone2       *string `json:"phone2,omitempty"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
	HouseholdSize int    `json:"householdSize,omitempty"`
	Street       string  `json:"street,omitempty"`
	StreetNumber string  `json:"streetNumber,omitempty"`
	Floor        *string `json:"floor,omitempty"`
	Town         string  `json:"town,omitempty"`
	Dependents   []Dependent `json:"dependents,omitempty"`
}

// DashboardStats is the admin dashboard summary
type DashboardStats struct {
	TotalMembers    int64 `json:"totalMembers"`
	TotalDependents int64 `json:"totalDependents"`
	PendingRequests int64 `json:"pendingRequests"`
	ExpiringSoon    int64 `json:"expiringSoon"`
	UpcomingCount   int64 `json:"upcomingActivities"`
}

// NewMemberResponse builds the API projection of m
func NewMemberResponse(m *Member) *MemberResponse {
	return &MemberResponse{
		ID:           m.ID,
		Name:         m.Name,
		Username:     m.Username,
		Role:         m.Role,
		JoinedAt:     m.JoinedAt.Format(time.RFC3339),
		ValidUntil:   m.ValidUntil.Format(time.RFC3339),
		BirthYear:    m.BirthYear,
		MemberNumber: m.MemberNumber,
		Phone:        m.Phone,
		Phone2:       m.Phone2,
		PaymentMethod: m.PaymentMethod,
		HouseholdSize: m.HouseholdSize,
		Street:       m.Street,
		StreetNumber: m.StreetNumber,
		Floor:        m.Floor,
		Town:         m.Town,
		Dependents:   m.Dependents,
	}
}
