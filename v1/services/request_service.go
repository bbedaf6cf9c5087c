package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmurillo/asociacion-backend/v1/models"
	"gorm.io/gorm"
)

// RequestService handles the membership request workflow
type RequestService struct {
	db *gorm.DB
}

// NewRequestService creates a new request service
func NewRequestService(db *gorm.DB) *RequestService {
	return &RequestService{db: db}
}

// CreateRequest registers a public signup. Names and address are
// normalized to uppercase without accents; the plaintext password is
// held on the request until the board decides.
func (s *RequestService) CreateRequest(payload *models.CreateRequestPayload) (*models.RequestCreatedResponse, error) {
	now := time.Now()
	if !models.ValidPaymentMethod(models.PaymentMethod(payload.PaymentMethod)) {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, payload.PaymentMethod)
	}
	if !validBirthYear(payload.BirthYear, now) {
		return nil, fmt.Errorf("%w: birth year out of range", ErrValidation)
	}
	if len(payload.Dependents) > payload.HouseholdSize-1 {
		return nil, fmt.Errorf("%w: household of %d admits at most %d dependents",
			ErrValidation, payload.HouseholdSize, payload.HouseholdSize-1)
	}
	for _, d := range payload.Dependents {
		if !validBirthYear(d.BirthYear, now) {
			return nil, fmt.Errorf("%w: dependent birth year out of range", ErrValidation)
		}
	}

	token, err := NewRequestToken()
	if err != nil {
		return nil, err
	}

	birthDate := time.Date(payload.BirthYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	request := models.MembershipRequest{
		Name:          StripAccents(payload.Name),
		FirstSurname:  StripAccents(payload.FirstSurname),
		SecondSurname: StripAccents(payload.SecondSurname),
		Phone:         payload.Phone,
		BirthDate:     &birthDate,
		HouseholdSize: payload.HouseholdSize,
		PaymentMethod: models.PaymentMethod(payload.PaymentMethod),
		Status:        models.RequestStatusPending,
		RequestedAt:   now,
		Password:      payload.Password,
		Token:         token,
		Street:        StripAccents(payload.Street),
		StreetNumber:  payload.StreetNumber,
		Floor:         payload.Floor,
		Town:          StripAccents(payload.Town),
	}
	if payload.Phone2 != "" {
		phone2 := payload.Phone2
		request.Phone2 = &phone2
	}
	for _, d := range payload.Dependents {
		dep := models.RequestDependent{
			Name:         StripAccents(d.Name),
			FirstSurname: StripAccents(d.FirstSurname),
			BirthYear:    d.BirthYear,
		}
		if d.SecondSurname != "" {
			second := StripAccents(d.SecondSurname)
			dep.SecondSurname = &second
		}
		request.Dependents = append(request.Dependents, dep)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.MembershipRequest{}).Where("phone = ?", payload.Phone).Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check phone: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: a request with phone %s already exists", ErrConflict, payload.Phone)
		}
		if err := tx.Create(&request).Error; err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Membership request created", "requestID", request.ID, "dependents", len(request.Dependents))
	return &models.RequestCreatedResponse{ID: request.ID, Token: request.Token}, nil
}

// GetRequest retrieves a request with its dependents
func (s *RequestService) GetRequest(id uint) (*models.MembershipRequest, error) {
	var request models.MembershipRequest
	err := s.db.Preload("Dependents").First(&request, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: request %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	return &request, nil
}

// GetRequestByToken retrieves a request through its confirmation token
func (s *RequestService) GetRequestByToken(token string) (*models.MembershipRequest, error) {
	var request models.MembershipRequest
	err := s.db.Preload("Dependents").Where("token = ?", token).First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no request for token", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	return &request, nil
}

// ListRequests returns requests newest first, optionally filtered by status
func (s *RequestService) ListRequests(status models.RequestStatus) ([]models.MembershipRequest, error) {
	var requests []models.MembershipRequest
	query := s.db.Preload("Dependents").Order("requested_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return requests, nil
}

// UpdatePending edits a request that has not been decided yet. The
// dependent list replaces the stored one entirely.
func (s *RequestService) UpdatePending(id uint, payload *models.UpdateRequestPayload) (*models.MembershipRequest, error) {
	if !models.ValidPaymentMethod(models.PaymentMethod(payload.PaymentMethod)) {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, payload.PaymentMethod)
	}
	if len(payload.Dependents) > payload.HouseholdSize-1 {
		return nil, fmt.Errorf("%w: household of %d admits at most %d dependents",
			ErrValidation, payload.HouseholdSize, payload.HouseholdSize-1)
	}

	var request models.MembershipRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.First(&request, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: request %d", ErrNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("failed to load request: %w", err)
		}
		if !request.IsPending() {
			return fmt.Errorf("%w: request %d is %s", ErrAlreadyProcessed, id, request.Status)
		}

		request.Name = StripAccents(payload.Name)
		request.FirstSurname = StripAccents(payload.FirstSurname)
		request.SecondSurname = StripAccents(payload.SecondSurname)
		request.Phone = payload.Phone
		request.Phone2 = nil
		if payload.Phone2 != "" {
			phone2 := payload.Phone2
			request.Phone2 = &phone2
		}
		request.HouseholdSize = payload.HouseholdSize
		request.PaymentMethod = models.PaymentMethod(payload.PaymentMethod)

		if err := tx.Where("request_id = ?", id).Delete(&models.RequestDependent{}).Error; err != nil {
			return fmt.Errorf("failed to clear dependents: %w", err)
		}
		request.Dependents = nil
		for _, d := range payload.Dependents {
			dep := models.RequestDependent{
				RequestID:    id,
				Name:         StripAccents(d.Name),
				FirstSurname: StripAccents(d.FirstSurname),
				BirthYear:    d.BirthYear,
			}
			if d.SecondSurname != "" {
				second := StripAccents(d.SecondSurname)
				dep.SecondSurname = &second
			}
			if err := tx.Create(&dep).Error; err != nil {
				return fmt.Errorf("failed to store dependent: %w", err)
			}
			request.Dependents = append(request.Dependents, dep)
		}
		if err := tx.Save(&request).Error; err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// Approve turns a pending request into a member with dependents. The
// whole promotion runs in one transaction: member number assignment,
// username derivation, credential setup, benefit numbers and the status
// flip commit or roll back together.
func (s *RequestService) Approve(id uint) (*models.ApprovalResponse, error) {
	now := time.Now()
	var response models.ApprovalResponse

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var request models.MembershipRequest
		err := tx.Preload("Dependents").First(&request, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: request %d", ErrNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("failed to load request: %w", err)
		}
		if !request.IsPending() {
			return fmt.Errorf("%w: request %d is %s", ErrAlreadyProcessed, id, request.Status)
		}

		number, err := nextMemberNumber(tx)
		if err != nil {
			return err
		}

		var username string
		if birthYear := request.BirthYear(); birthYear != nil {
			username, err = generateUsername(tx, request.Name, request.FirstSurname, request.SecondSurname, *birthYear)
		} else {
			username, err = generateUsername(tx, request.Name, request.FirstSurname, request.SecondSurname, now.Year())
		}
		if err != nil {
			return err
		}

		password := request.Password
		if password == "" {
			password, err = RandomPassword(12)
			if err != nil {
				return err
			}
		}

		member := models.Member{
			Name:          StripAccents(request.Name + " " + request.FirstSurname + " " + request.SecondSurname),
			Username:      username,
			PasswordPlain: password,
			Role:          models.RoleMember,
			JoinedAt:      now,
			ValidUntil:    EndOfYear(now),
			BirthYear:     request.BirthYear(),
			BirthDate:     request.BirthDate,
			MemberNumber:  &number,
			Phone:         request.Phone,
			Phone2:        request.Phone2,
			PaymentMethod: string(request.PaymentMethod),
			HouseholdSize: request.HouseholdSize,
			Street:        request.Street,
			StreetNumber:  request.StreetNumber,
			Floor:         request.Floor,
			Town:          request.Town,
		}
		if err := member.SetPassword(password); err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("failed to create member: %w", err)
		}

		for i, d := range request.Dependents {
			benefitNumber := FormatBenefitNumber(number, i+1)
			dependent := models.Dependent{
				MemberID:      member.ID,
				Name:          d.Name,
				FirstSurname:  d.FirstSurname,
				SecondSurname: d.SecondSurname,
				BirthYear:     d.BirthYear,
				ValidUntil:    member.ValidUntil,
				BenefitNumber: &benefitNumber,
			}
			if err := tx.Create(&dependent).Error; err != nil {
				return fmt.Errorf("failed to create dependent: %w", err)
			}
		}

		request.Status = models.RequestStatusApproved
		request.ConfirmedAt = &now
		if err := tx.Save(&request).Error; err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}

		response = models.ApprovalResponse{
			MemberID:        member.ID,
			MemberNumber:    number,
			Username:        username,
			Password:        password,
			DependentsCount: len(request.Dependents),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Membership request approved", "requestID", id,
		"memberID", response.MemberID, "memberNumber", response.MemberNumber)
	return &response, nil
}

// Reject marks a pending request as rejected. Terminal, no cascade.
func (s *RequestService) Reject(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var request models.MembershipRequest
		err := tx.First(&request, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: request %d", ErrNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("failed to load request: %w", err)
		}
		if !request.IsPending() {
			return fmt.Errorf("%w: request %d is %s", ErrAlreadyProcessed, id, request.Status)
		}
		request.Status = models.RequestStatusRejected
		if err := tx.Save(&request).Error; err != nil {
			return fmt.Errorf("failed to reject request: %w", err)
		}
		slog.Info("Membership request rejected", "requestID", id)
		return nil
	})
}
