package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmurillo/asociacion-backend/v1/models"
	"gorm.io/gorm"
)

// ActivityService handles activity management and rosters
type ActivityService struct {
	db *gorm.DB
}

// NewActivityService creates a new activity service
func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

func validateActivityPayload(req *models.CreateActivityRequest) (time.Time, error) {
	if req.MaxCapacity < 1 {
		return time.Time{}, fmt.Errorf("%w: capacity must be positive", ErrValidation)
	}
	for _, age := range []*int{req.MinAge, req.MaxAge} {
		if age != nil && (*age < 0 || *age > 120) {
			return time.Time{}, fmt.Errorf("%w: age must lie in 0..120", ErrValidation)
		}
	}
	if req.MinAge != nil && req.MaxAge != nil && *req.MinAge > *req.MaxAge {
		return time.Time{}, fmt.Errorf("%w: minimum age exceeds maximum age", ErrValidation)
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid start time: %v", ErrValidation, err)
	}
	return startsAt, nil
}

// CreateActivity validates and stores a new activity
func (s *ActivityService) CreateActivity(req *models.CreateActivityRequest) (*models.ActivityResponse, error) {
	startsAt, err := validateActivityPayload(req)
	if err != nil {
		return nil, err
	}
	activity := models.Activity{
		Name:        req.Name,
		Description: req.Description,
		StartsAt:    startsAt,
		MaxCapacity: req.MaxCapacity,
		MinAge:      req.MinAge,
		MaxAge:      req.MaxAge,
		CreatedAt:   time.Now(),
	}
	if err := s.db.Create(&activity).Error; err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}
	slog.Info("Activity created", "activityID", activity.ID, "name", activity.Name)
	return models.NewActivityResponse(&activity, 0), nil
}

// UpdateActivity replaces an activity's fields with the payload
func (s *ActivityService) UpdateActivity(id uint, req *models.CreateActivityRequest) (*models.ActivityResponse, error) {
	startsAt, err := validateActivityPayload(req)
	if err != nil {
		return nil, err
	}
	var activity models.Activity
	err = s.db.First(&activity, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: activity %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}

	activity.Name = req.Name
	activity.Description = req.Description
	activity.StartsAt = startsAt
	activity.MaxCapacity = req.MaxCapacity
	activity.MinAge = req.MinAge
	activity.MaxAge = req.MaxAge
	if err := s.db.Save(&activity).Error; err != nil {
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}
	registered, err := s.registrationCount(id)
	if err != nil {
		return nil, err
	}
	return models.NewActivityResponse(&activity, registered), nil
}

// DeleteActivity removes an activity and its registrations
func (s *ActivityService) DeleteActivity(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var activity models.Activity
		err := tx.First(&activity, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: activity %d", ErrNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("failed to load activity: %w", err)
		}
		if err := tx.Where("activity_id = ?", id).Delete(&models.Registration{}).Error; err != nil {
			return fmt.Errorf("failed to delete registrations: %w", err)
		}
		if err := tx.Delete(&activity).Error; err != nil {
			return fmt.Errorf("failed to delete activity: %w", err)
		}
		slog.Info("Activity deleted", "activityID", id)
		return nil
	})
}

// GetActivity retrieves a single activity with its registration count
func (s *ActivityService) GetActivity(id uint) (*models.ActivityResponse, error) {
	var activity models.Activity
	err := s.db.First(&activity, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: activity %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	registered, err := s.registrationCount(id)
	if err != nil {
		return nil, err
	}
	return models.NewActivityResponse(&activity, registered), nil
}

func (s *ActivityService) registrationCount(activityID uint) (int, error) {
	var count int64
	err := s.db.Model(&models.Registration{}).Where("activity_id = ?", activityID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return int(count), nil
}

func (s *ActivityService) toResponses(activities []models.Activity) ([]models.ActivityResponse, error) {
	responses := make([]models.ActivityResponse, 0, len(activities))
	for i := range activities {
		registered, err := s.registrationCount(activities[i].ID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *models.NewActivityResponse(&activities[i], registered))
	}
	return responses, nil
}

// ListUpcoming returns future activities ordered soonest first
func (s *ActivityService) ListUpcoming() ([]models.ActivityResponse, error) {
	var activities []models.Activity
	err := s.db.Where("starts_at > ?", time.Now()).Order("starts_at").Find(&activities).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return s.toResponses(activities)
}

// ListAll returns every activity newest first with an optional name search
func (s *ActivityService) ListAll(search string) ([]models.ActivityResponse, error) {
	var activities []models.Activity
	query := s.db.Order("starts_at DESC")
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	if err := query.Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return s.toResponses(activities)
}

// Roster returns the registration roster for one activity. Rows carry
// the registrant's display name, whether they attend as a member or as
// a dependent, and the attendance flag.
func (s *ActivityService) Roster(activityID uint) ([]models.RosterEntryResponse, error) {
	var activity models.Activity
	err := s.db.First(&activity, activityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: activity %d", ErrNotFound, activityID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}

	var registrations []models.Registration
	err = s.db.Preload("Member").Preload("Dependent").
		Where("activity_id = ?", activityID).Order("registered_at").Find(&registrations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	roster := make([]models.RosterEntryResponse, 0, len(registrations))
	for i := range registrations {
		r := &registrations[i]
		entry := models.RosterEntryResponse{
			RegistrationID: r.ID,
			Attended:       r.Attended,
			RegisteredAt:   r.RegisteredAt.Format(time.RFC3339),
		}
		if r.DependentID != nil && r.Dependent != nil {
			entry.Kind = models.RosterKindDependent
			entry.Name = r.Dependent.FullName()
			if r.Dependent.BenefitNumber != nil {
				entry.BenefitNumber = *r.Dependent.BenefitNumber
			}
		} else if r.Member != nil {
			entry.Kind = models.RosterKindMember
			entry.Name = r.Member.Name
			if r.Member.MemberNumber != nil {
				entry.MemberNumber = *r.Member.MemberNumber
			}
		}
		roster = append(roster, entry)
	}
	return roster, nil
}

// ToggleAttendance flips the attended flag of a registration. The
// registration must belong to the given activity; capacity and timing
// play no part.
func (s *ActivityService) ToggleAttendance(activityID, registrationID uint) (*models.Registration, error) {
	var registration models.Registration
	err := s.db.First(&registration, registrationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: registration %d", ErrNotFound, registrationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load registration: %w", err)
	}
	if registration.ActivityID != activityID {
		return nil, fmt.Errorf("%w: registration %d does not belong to activity %d",
			ErrForbidden, registrationID, activityID)
	}
	registration.Attended = !registration.Attended
	if err := s.db.Save(&registration).Error; err != nil {
		return nil, fmt.Errorf("failed to update attendance: %w", err)
	}
	return &registration, nil
}
