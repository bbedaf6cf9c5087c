package models

import (
	"strings"
	"time"
)

// Roster entry kinds. Every member appears in the household directory as
// their own entry alongside their dependents.
const (
	RosterKindMember    = "member"
	RosterKindDependent = "dependent"
)

// RosterEntry is the common read-only projection of a Member or a
// Dependent used by the household directory. It replaces the previous
// system's ad hoc member-as-dependent shim with an explicit tagged value.
type RosterEntry struct {
	Kind          string    `json:"kind"`
	Name          string    `json:"name"`
	FirstSurname  string    `json:"firstSurname"`
	SecondSurname *string   `json:"secondSurname,omitempty"`
	BirthYear     *int      `json:"birthYear,omitempty"`
	BenefitNumber *string   `json:"benefitNumber,omitempty"`
	ValidUntil    time.Time `json:"validUntil"`
	MemberID      uint      `json:"memberId"`
	MemberName    string    `json:"memberName"`
	MemberNumber  *string   `json:"memberNumber,omitempty"`
}

// IsMinor reports whether the entry's birth year makes them under 18
// relative to now. Entries with an unknown birth year are not minors.
func (e *RosterEntry) IsMinor(now time.Time) bool {
	if e.BirthYear == nil {
		return false
	}
	return now.Year()-*e.BirthYear < 18
}

// MemberRosterEntry projects a member as their own household entry. The
// stored full name is split back into name and surname parts; the benefit
// number is the member number itself.
func MemberRosterEntry(m *Member) RosterEntry {
	parts := strings.SplitN(m.Name, " ", 3)
	entry := RosterEntry{
		Kind:          RosterKindMember,
		BirthYear:     m.BirthYear,
		BenefitNumber: m.MemberNumber,
		ValidUntil:    m.ValidUntil,
		MemberID:      m.ID,
		MemberName:    m.Name,
		MemberNumber:  m.MemberNumber,
	}
	if len(parts) > 0 {
		entry.Name = parts[0]
	}
	if len(parts) > 1 {
		entry.FirstSurname = parts[1]
	}
	if len(parts) > 2 {
		entry.SecondSurname = &parts[2]
	}
	return entry
}

// DependentRosterEntry projects a dependent as a household entry of its
// owning member.
func DependentRosterEntry(d *Dependent, owner *Member) RosterEntry {
	year := d.BirthYear
	return RosterEntry{
		Kind:          RosterKindDependent,
		Name:          d.Name,
		FirstSurname:  d.FirstSurname,
		SecondSurname: d.SecondSurname,
		BirthYear:     &year,
		BenefitNumber: d.BenefitNumber,
		ValidUntil:    d.ValidUntil,
		MemberID:      owner.ID,
		MemberName:    owner.Name,
		MemberNumber:  owner.MemberNumber,
	}
}
