package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmurillo/asociacion-backend/v1/models"
	"gorm.io/gorm"
)

// RegistrationService handles member-facing activity registration
type RegistrationService struct {
	db *gorm.DB
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(db *gorm.DB) *RegistrationService {
	return &RegistrationService{db: db}
}

// Register signs the member, or one of their dependents, up for an
// activity. Eligibility checks run in a fixed order and the first
// failure wins: ownership, duplicate, capacity, timing, age window.
func (s *RegistrationService) Register(memberID, activityID uint, dependentID *uint) (*models.Registration, error) {
	now := time.Now()
	var registration models.Registration

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var member models.Member
		err := tx.First(&member, memberID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: member %d", ErrNotFound, memberID)
		}
		if err != nil {
			return fmt.Errorf("failed to load member: %w", err)
		}

		var activity models.Activity
		err = tx.First(&activity, activityID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: activity %d", ErrNotFound, activityID)
		}
		if err != nil {
			return fmt.Errorf("failed to load activity: %w", err)
		}

		birthYear := member.BirthYear
		if dependentID != nil {
			var dependent models.Dependent
			err := tx.First(&dependent, *dependentID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: dependent %d", ErrNotFound, *dependentID)
			}
			if err != nil {
				return fmt.Errorf("failed to load dependent: %w", err)
			}
			if dependent.MemberID != memberID {
				return fmt.Errorf("%w: dependent %d does not belong to member %d",
					ErrForbidden, *dependentID, memberID)
			}
			year := dependent.BirthYear
			birthYear = &year
		}

		duplicate := tx.Model(&models.Registration{}).
			Where("member_id = ? AND activity_id = ?", memberID, activityID)
		if dependentID != nil {
			duplicate = duplicate.Where("dependent_id = ?", *dependentID)
		} else {
			duplicate = duplicate.Where("dependent_id IS NULL")
		}
		var count int64
		if err := duplicate.Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check registration: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: already registered", ErrConflict)
		}

		var registered int64
		if err := tx.Model(&models.Registration{}).Where("activity_id = ?", activityID).Count(&registered).Error; err != nil {
			return fmt.Errorf("failed to count registrations: %w", err)
		}
		if int(registered) >= activity.MaxCapacity {
			return fmt.Errorf("%w: activity is full", ErrValidation)
		}

		if activity.IsPast(now) {
			return fmt.Errorf("%w: activity already started", ErrValidation)
		}

		if err := activity.CheckAge(birthYear, now); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}

		registration = models.Registration{
			MemberID:     memberID,
			ActivityID:   activityID,
			DependentID:  dependentID,
			RegisteredAt: now,
		}
		if err := tx.Create(&registration).Error; err != nil {
			return fmt.Errorf("failed to create registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Registration created", "memberID", memberID, "activityID", activityID,
		"registrationID", registration.ID)
	return &registration, nil
}

// Cancel removes the member's registration, or their dependent's. There
// is no time cutoff; a missing registration is an error and nothing
// changes.
func (s *RegistrationService) Cancel(memberID, activityID uint, dependentID *uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		query := tx.Where("member_id = ? AND activity_id = ?", memberID, activityID)
		if dependentID != nil {
			query = query.Where("dependent_id = ?", *dependentID)
		} else {
			query = query.Where("dependent_id IS NULL")
		}

		var registration models.Registration
		err := query.First(&registration).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: not registered for this activity", ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to load registration: %w", err)
		}
		if err := tx.Delete(&registration).Error; err != nil {
			return fmt.Errorf("failed to cancel registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.Info("Registration cancelled", "memberID", memberID, "activityID", activityID)
	return nil
}

// ListForMember returns the member's registrations, newest activity first
func (s *RegistrationService) ListForMember(memberID uint) ([]models.Registration, error) {
	var registrations []models.Registration
	err := s.db.Preload("Dependent").
		Joins("JOIN activities ON activities.id = registrations.activity_id").
		Where("registrations.member_id = ?", memberID).
		Order("activities.starts_at DESC").
		Find(&registrations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return registrations, nil
}
