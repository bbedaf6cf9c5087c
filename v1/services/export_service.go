package services

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmurillo/asociacion-backend/v1/models"
	"gorm.io/gorm"
)

// ExportService produces and consumes the full-database JSON dump
type ExportService struct {
	db *gorm.DB
}

// NewExportService creates a new export service
func NewExportService(db *gorm.DB) *ExportService {
	return &ExportService{db: db}
}

// Export collects every collection into a single document
func (s *ExportService) Export() (*models.DataExport, error) {
	export := &models.DataExport{
		ExportedAt: time.Now().UTC(),
		Version:    models.ExportVersion,
	}

	collections := []struct {
		name string
		dest interface{}
	}{
		{"members", &export.Members},
		{"dependents", &export.Dependents},
		{"activities", &export.Activities},
		{"registrations", &export.Registrations},
		{"membership_requests", &export.MembershipRequests},
		{"request_dependents", &export.RequestDependents},
	}
	for _, c := range collections {
		if err := s.db.Find(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", c.name, err)
		}
	}

	slog.Info("Database exported", "members", len(export.Members),
		"dependents", len(export.Dependents), "activities", len(export.Activities))
	return export, nil
}

// Import loads an export document in one transaction. Merge mode skips
// rows whose primary key or natural unique key already exists; replace
// mode wipes every collection first.
func (s *ExportService) Import(export *models.DataExport, mode models.ImportMode) (*models.ImportSummary, error) {
	if !models.ValidImportMode(mode) {
		return nil, fmt.Errorf("%w: unknown import mode %q", ErrValidation, mode)
	}
	if export.Version != models.ExportVersion {
		return nil, fmt.Errorf("%w: unsupported export version %q", ErrValidation, export.Version)
	}

	summary := &models.ImportSummary{Mode: mode}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if mode == models.ImportModeReplace {
			wipeOrder := []interface{}{
				&models.Registration{},
				&models.Dependent{},
				&models.RequestDependent{},
				&models.MembershipRequest{},
				&models.Activity{},
				&models.Member{},
			}
			for _, model := range wipeOrder {
				if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
					return fmt.Errorf("failed to wipe collection: %w", err)
				}
			}
		}

		if err := importRows(tx, export.Members, &summary.Members, summary); err != nil {
			return err
		}
		if err := importRows(tx, export.Activities, &summary.Activities, summary); err != nil {
			return err
		}
		if err := importRows(tx, export.Dependents, &summary.Dependents, summary); err != nil {
			return err
		}
		if err := importRows(tx, export.Registrations, &summary.Registrations, summary); err != nil {
			return err
		}
		if err := importRows(tx, export.MembershipRequests, &summary.MembershipRequests, summary); err != nil {
			return err
		}
		if err := importRows(tx, export.RequestDependents, &summary.RequestDependents, summary); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Database imported", "mode", mode, "members", summary.Members, "skipped", summary.Skipped)
	return summary, nil
}

// rowID is implemented by all exported entities
type rowID interface {
	models.Member | models.Dependent | models.Activity | models.Registration |
		models.MembershipRequest | models.RequestDependent
}

func importRows[T rowID](tx *gorm.DB, rows []T, imported *int, summary *models.ImportSummary) error {
	for i := range rows {
		var count int64
		if err := existingRowQuery(tx, &rows[i]).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing row: %w", err)
		}
		if count > 0 {
			summary.Skipped++
			continue
		}
		if err := tx.Create(&rows[i]).Error; err != nil {
			return fmt.Errorf("failed to import row: %w", err)
		}
		*imported++
	}
	return nil
}

// existingRowQuery matches rows already present under the primary key
// or the entity's natural unique key. A member whose username arrives
// under a fresh ID must still be skipped, not crash the transaction on
// the unique index.
func existingRowQuery(tx *gorm.DB, row interface{}) *gorm.DB {
	switch v := row.(type) {
	case *models.Member:
		q := tx.Model(&models.Member{}).Where("id = ? OR username = ?", v.ID, v.Username)
		if v.MemberNumber != nil {
			q = q.Or("member_number = ?", *v.MemberNumber)
		}
		return q
	case *models.Dependent:
		q := tx.Model(&models.Dependent{}).Where("id = ?", v.ID)
		if v.BenefitNumber != nil {
			q = q.Or("benefit_number = ?", *v.BenefitNumber)
		}
		return q
	case *models.Activity:
		return tx.Model(&models.Activity{}).Where("id = ?", v.ID)
	case *models.Registration:
		if v.DependentID != nil {
			return tx.Model(&models.Registration{}).
				Where("id = ? OR (member_id = ? AND activity_id = ? AND dependent_id = ?)",
					v.ID, v.MemberID, v.ActivityID, *v.DependentID)
		}
		return tx.Model(&models.Registration{}).
			Where("id = ? OR (member_id = ? AND activity_id = ? AND dependent_id IS NULL)",
				v.ID, v.MemberID, v.ActivityID)
	case *models.MembershipRequest:
		return tx.Model(&models.MembershipRequest{}).Where("id = ? OR token = ?", v.ID, v.Token)
	case *models.RequestDependent:
		return tx.Model(&models.RequestDependent{}).Where("id = ?", v.ID)
	}
	return tx.Where("1 = 0")
}
