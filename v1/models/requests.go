package models

import "time"

// MembershipRequest represents a pending application ("solicitud de
// socio"). The plaintext password is held until the board approves the
// request, at which point it seeds the new member's credentials. The
// token grants anonymous access to the confirmation page.
type MembershipRequest struct {
	ID            uint          `gorm:"primarykey" json:"id"`
	Name          string        `gorm:"column:name;size:100;not null" json:"name"`
	FirstSurname  string        `gorm:"column:first_surname;size:100;not null" json:"firstSurname"`
	SecondSurname string        `gorm:"column:second_surname;size:100;not null" json:"secondSurname"`
	Phone         string        `gorm:"column:phone;size:20;not null" json:"phone"`
	Phone2        *string       `gorm:"column:phone2;size:20" json:"phone2,omitempty"`
	BirthDate     *time.Time    `gorm:"column:birth_date" json:"birthDate,omitempty"`
	HouseholdSize int           `gorm:"column:household_size;not null" json:"householdSize"`
	PaymentMethod PaymentMethod `gorm:"column:payment_method;size:20;not null" json:"paymentMethod"`
	Status        RequestStatus `gorm:"column:status;size:20;not null;default:pending" json:"status"`
	RequestedAt   time.Time     `gorm:"column:requested_at;not null" json:"requestedAt"`
	ConfirmedAt   *time.Time    `gorm:"column:confirmed_at" json:"confirmedAt,omitempty"`
	Password      string        `gorm:"column:password;size:255" json:"-"`
	Token         string        `gorm:"column:token;size:255;uniqueIndex" json:"-"`
	Street        string        `gorm:"column:street;size:200;not null" json:"street"`
	StreetNumber  string        `gorm:"column:street_number;size:20;not null" json:"streetNumber"`
	Floor         *string       `gorm:"column:floor;size:20" json:"floor,omitempty"`
	Town          string        `gorm:"column:town;size:100;not null" json:"town"`

	Dependents []RequestDependent `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"dependents"`
}

// TableName sets the table name for GORM
func (MembershipRequest) TableName() string {
	return "membership_requests"
}

// IsPending reports whether the request can still be edited or decided
func (r *MembershipRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// BirthYear returns the applicant's birth year, or nil when unknown
func (r *MembershipRequest) BirthYear() *int {
	if r.BirthDate == nil {
		return nil
	}
	year := r.BirthDate.Year()
	return &year
}

// RequestDependent is a household member declared on a membership
// request. On approval each one becomes a Dependent of the new member.
type RequestDependent struct {
	ID            uint    `gorm:"primarykey" json:"id"`
	RequestID     uint    `gorm:"column:request_id;not null;index" json:"requestId"`
	Name          string  `gorm:"column:name;size:100;not null" json:"name"`
	FirstSurname  string  `gorm:"column:first_surname;size:100;not null" json:"firstSurname"`
	SecondSurname *string `gorm:"column:second_surname;size:100" json:"secondSurname,omitempty"`
	BirthYear     int     `gorm:"column:birth_year;not null" json:"birthYear"`
}

// TableName sets the table name for GORM
func (RequestDependent) TableName() string {
	return "request_dependents"
}

// SignupDependent is one declared household member on the signup form
type SignupDependent struct {
	Name          string `json:"name" validate:"required"`
	FirstSurname  string `json:"firstSurname" validate:"required"`
	SecondSurname string `json:"secondSurname" validate:"required"`
	BirthYear     int    `json:"birthYear" validate:"required"`
}

// CreateRequestPayload is the public signup form payload
type CreateRequestPayload struct {
	Name            string            `json:"name" validate:"required"`
	FirstSurname    string            `json:"firstSurname" validate:"required"`
	SecondSurname   string            `json:"secondSurname" validate:"required"`
	Phone           string            `json:"phone" validate:"required,len=9,numeric"`
	Phone2          string            `json:"phone2" validate:"omitempty,len=9,numeric"`
	BirthYear       int               `json:"birthYear" validate:"required"`
	HouseholdSize   int               `json:"householdSize" validate:"required,min=1"`
	PaymentMethod   string            `json:"paymentMethod" validate:"required"`
	Password        string            `json:"password" validate:"required,min=6"`
	PasswordConfirm string            `json:"passwordConfirm" validate:"required,eqfield=Password"`
	Street          string            `json:"street" validate:"required"`
	StreetNumber    string            `json:"streetNumber" validate:"required"`
	Floor           *string           `json:"floor"`
	Town            string            `json:"town" validate:"required"`
	Dependents      []SignupDependent `json:"dependents" validate:"dive"`
}

// UpdateRequestPayload edits a pending request. The dependent list
// replaces the stored one entirely.
type UpdateRequestPayload struct {
	Name          string            `json:"name" validate:"required"`
	FirstSurname  string            `json:"firstSurname" validate:"required"`
	SecondSurname string            `json:"secondSurname"`
	Phone         string            `json:"phone" validate:"required,len=9,numeric"`
	Phone2        string            `json:"phone2" validate:"omitempty,len=9,numeric"`
	HouseholdSize int               `json:"householdSize" validate:"required,min=1"`
	PaymentMethod string            `json:"paymentMethod" validate:"required"`
	Dependents    []SignupDependent `json:"dependents" validate:"dive"`
}

// RequestCreatedResponse is returned to the applicant after signup
type RequestCreatedResponse struct {
	ID    uint   `json:"id"`
	Token string `json:"token"`
}

// ApprovalResponse summarizes the outcome of approving a request
type ApprovalResponse struct {
	MemberID        uint   `json:"memberId"`
	MemberNumber    string `json:"memberNumber"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	DependentsCount int    `json:"dependentsCount"`
}
