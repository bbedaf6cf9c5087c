package services

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmurillo/asociacion-backend/v1/models"
	"gorm.io/gorm"
)

// MemberService handles member and household operations
type MemberService struct {
	db *gorm.DB
}

// NewMemberService creates a new member service
func NewMemberService(db *gorm.DB) *MemberService {
	return &MemberService{db: db}
}

// nextMemberNumber scans existing member numbers and returns the next
// sequential value zero-padded to four digits. The scan-and-insert pair
// is not serialized; a concurrent approval surfaces as a unique
// constraint violation and the caller retries.
func nextMemberNumber(tx *gorm.DB) (string, error) {
	var numbers []string
	err := tx.Model(&models.Member{}).Where("member_number IS NOT NULL").Pluck("member_number", &numbers).Error
	if err != nil {
		return "", fmt.Errorf("failed to read member numbers: %w", err)
	}
	highest := 0
	for _, n := range numbers {
		if v, err := strconv.Atoi(n); err == nil && v > highest {
			highest = v
		}
	}
	return FormatMemberNumber(highest + 1), nil
}

// generateUsername derives a free username from the applicant's name
// parts. On collision a numeric suffix is appended and retried.
func generateUsername(tx *gorm.DB, name, firstSurname, secondSurname string, birthYear int) (string, error) {
	base := BaseUsername(name, firstSurname, secondSurname, birthYear)
	candidate := base
	for suffix := 1; ; suffix++ {
		var count int64
		if err := tx.Model(&models.Member{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check username: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, suffix)
	}
}

func validBirthYear(year int, now time.Time) bool {
	return year >= models.MinBirthYear && year <= now.Year()
}

// CreateMember creates a member directly, bypassing the request workflow.
// Board use only; the member number is assigned immediately.
func (s *MemberService) CreateMember(req *models.CreateMemberRequest) (*models.MemberResponse, error) {
	now := time.Now()
	if !models.ValidPaymentMethod(models.PaymentMethod(req.PaymentMethod)) {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, req.PaymentMethod)
	}
	if !validBirthYear(req.BirthYear, now) {
		return nil, fmt.Errorf("%w: birth year out of range", ErrValidation)
	}

	fullName := StripAccents(strings.TrimSpace(req.Name + " " + req.FirstSurname + " " + req.SecondSurname))
	birthYear := req.BirthYear
	member := models.Member{
		Name:          fullName,
		Username:      req.Username,
		PasswordPlain: req.Password,
		Role:          models.RoleMember,
		JoinedAt:      now,
		ValidUntil:    EndOfYear(now),
		BirthYear:     &birthYear,
		Phone:         req.Phone,
		PaymentMethod: req.PaymentMethod,
		HouseholdSize: req.HouseholdSize,
		Street:        StripAccents(req.Street),
		StreetNumber:  req.StreetNumber,
		Floor:         req.Floor,
		Town:          StripAccents(req.Town),
	}
	if err := member.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Member{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: username %q already taken", ErrConflict, req.Username)
		}
		number, err := nextMemberNumber(tx)
		if err != nil {
			return err
		}
		member.MemberNumber = &number
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("failed to create member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Member created", "memberID", member.ID, "memberNumber", *member.MemberNumber)
	return models.NewMemberResponse(&member), nil
}

// GetMember retrieves a member with their dependents
func (s *MemberService) GetMember(id uint) (*models.Member, error) {
	var member models.Member
	err := s.db.Preload("Dependents").First(&member, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: member %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load member: %w", err)
	}
	return &member, nil
}

// GetMemberByUsername retrieves a member by username
func (s *MemberService) GetMemberByUsername(username string) (*models.Member, error) {
	var member models.Member
	err := s.db.Where("username = ?", username).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: username %q", ErrNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load member: %w", err)
	}
	return &member, nil
}

// ListMembers returns all members sorted by member number, optionally
// filtered by an accent-insensitive search over name, username and
// member number.
func (s *MemberService) ListMembers(search string) ([]models.Member, error) {
	var members []models.Member
	query := s.db.Preload("Dependents").Order("member_number")
	if search != "" {
		needle := "%" + StripAccents(search) + "%"
		query = query.Where(
			"name LIKE ? OR upper(username) LIKE ? OR member_number LIKE ?",
			needle, needle, needle,
		)
	}
	if err := query.Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// UpdateMember applies a partial edit. Nil fields are left unchanged.
func (s *MemberService) UpdateMember(id uint, req *models.UpdateMemberRequest) (*models.MemberResponse, error) {
	var member models.Member
	err := s.db.First(&member, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: member %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load member: %w", err)
	}

	if req.Username != nil && *req.Username != member.Username {
		var count int64
		if err := s.db.Model(&models.Member{}).Where("username = ? AND id <> ?", *req.Username, id).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		if count > 0 {
			return nil, fmt.Errorf("%w: username %q already taken", ErrConflict, *req.Username)
		}
		member.Username = *req.Username
	}
	if req.Name != nil {
		member.Name = StripAccents(*req.Name)
	}
	if req.Password != nil {
		if err := member.SetPassword(*req.Password); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		member.PasswordPlain = *req.Password
	}
	if req.BirthYear != nil {
		if !validBirthYear(*req.BirthYear, time.Now()) {
			return nil, fmt.Errorf("%w: birth year out of range", ErrValidation)
		}
		member.BirthYear = req.BirthYear
	}
	if req.Street != nil {
		member.Street = StripAccents(*req.Street)
	}
	if req.StreetNumber != nil {
		member.StreetNumber = *req.StreetNumber
	}
	if req.Floor != nil {
		member.Floor = req.Floor
	}
	if req.Town != nil {
		member.Town = StripAccents(*req.Town)
	}

	if err := s.db.Save(&member).Error; err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}
	return models.NewMemberResponse(&member), nil
}

// DeleteMember removes a member together with dependents and registrations
func (s *MemberService) DeleteMember(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var member models.Member
		err := tx.First(&member, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: member %d", ErrNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("failed to load member: %w", err)
		}
		if err := tx.Where("member_id = ?", id).Delete(&models.Registration{}).Error; err != nil {
			return fmt.Errorf("failed to delete registrations: %w", err)
		}
		if err := tx.Where("member_id = ?", id).Delete(&models.Dependent{}).Error; err != nil {
			return fmt.Errorf("failed to delete dependents: %w", err)
		}
		if err := tx.Delete(&member).Error; err != nil {
			return fmt.Errorf("failed to delete member: %w", err)
		}
		slog.Info("Member deleted", "memberID", id)
		return nil
	})
}

// RenewMember extends the member's validity, and that of all their
// dependents, to the end of the current year.
func (s *MemberService) RenewMember(id uint) (*models.MemberResponse, error) {
	validUntil := EndOfYear(time.Now())
	var member models.Member
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.First(&member, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: member %d", ErrNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("failed to load member: %w", err)
		}
		member.ValidUntil = validUntil
		if err := tx.Save(&member).Error; err != nil {
			return fmt.Errorf("failed to renew member: %w", err)
		}
		err = tx.Model(&models.Dependent{}).Where("member_id = ?", id).Update("valid_until", validUntil).Error
		if err != nil {
			return fmt.Errorf("failed to renew dependents: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Member renewed", "memberID", id, "validUntil", validUntil)
	return models.NewMemberResponse(&member), nil
}

// ListExpiring returns members whose validity ends within the window
// starting now. Expired members are not included.
func (s *MemberService) ListExpiring(window time.Duration) ([]models.Member, error) {
	now := time.Now()
	var members []models.Member
	err := s.db.Where("valid_until > ? AND valid_until <= ?", now, now.Add(window)).
		Order("valid_until").Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring members: %w", err)
	}
	return members, nil
}

// DashboardStats aggregates the admin dashboard counters
func (s *MemberService) DashboardStats() (*models.DashboardStats, error) {
	now := time.Now()
	stats := &models.DashboardStats{}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.TotalMembers, s.db.Model(&models.Member{}).Where("role = ?", models.RoleMember)},
		{&stats.TotalDependents, s.db.Model(&models.Dependent{})},
		{&stats.PendingRequests, s.db.Model(&models.MembershipRequest{}).Where("status = ?", models.RequestStatusPending)},
		{&stats.ExpiringSoon, s.db.Model(&models.Member{}).Where("valid_until > ? AND valid_until <= ?", now, now.Add(30*24*time.Hour))},
		{&stats.UpcomingCount, s.db.Model(&models.Activity{}).Where("starts_at > ?", now)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to compute dashboard stats: %w", err)
		}
	}
	return stats, nil
}

// HouseholdDirectory merges every member (as their own entry) with all
// dependents, sorted by name. Search matches accent-insensitively on the
// entry name; minorsOnly keeps entries under 18.
func (s *MemberService) HouseholdDirectory(search string, minorsOnly bool) ([]models.RosterEntry, error) {
	var members []models.Member
	if err := s.db.Preload("Dependents").Where("role = ?", models.RoleMember).Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}

	now := time.Now()
	needle := StripAccents(strings.TrimSpace(search))
	entries := make([]models.RosterEntry, 0, len(members))
	for i := range members {
		m := &members[i]
		entries = append(entries, models.MemberRosterEntry(m))
		for j := range m.Dependents {
			entries = append(entries, models.DependentRosterEntry(&m.Dependents[j], m))
		}
	}

	filtered := entries[:0]
	for _, e := range entries {
		if minorsOnly && !e.IsMinor(now) {
			continue
		}
		if needle != "" {
			display := StripAccents(e.Name + " " + e.FirstSurname)
			if e.SecondSurname != nil {
				display += " " + StripAccents(*e.SecondSurname)
			}
			if !strings.Contains(display, needle) {
				continue
			}
		}
		filtered = append(filtered, e)
	}

	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].Name != filtered[j].Name {
			return filtered[i].Name < filtered[j].Name
		}
		return filtered[i].FirstSurname < filtered[j].FirstSurname
	})
	return filtered, nil
}
