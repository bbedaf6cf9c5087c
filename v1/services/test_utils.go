package services

import (
	"testing"
	"time"

	"github.com/jmurillo/asociacion-backend/v1/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupSQLiteTestDB creates an in-memory SQLite database for testing
func SetupSQLiteTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to SQLite test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Member{},
		&models.Dependent{},
		&models.MembershipRequest{},
		&models.RequestDependent{},
		&models.Activity{},
		&models.Registration{},
		&models.BackupJob{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// CreateTestMember inserts a member with sane defaults. Exported for
// handler tests.
func CreateTestMember(t *testing.T, db *gorm.DB, username string, birthYear *int) *models.Member {
	now := time.Now()
	number, err := nextMemberNumber(db)
	if err != nil {
		t.Fatalf("Failed to compute member number: %v", err)
	}
	member := &models.Member{
		Name:          "TEST MEMBER " + username,
		Username:      username,
		Role:          models.RoleMember,
		JoinedAt:      now,
		ValidUntil:    EndOfYear(now),
		BirthYear:     birthYear,
		MemberNumber:  &number,
		PaymentMethod: string(models.PaymentMethodCash),
		HouseholdSize: 1,
	}
	if err := member.SetPassword("secret123"); err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	member.PasswordPlain = "secret123"
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("Failed to create test member: %v", err)
	}
	return member
}

// CreateTestDependent inserts a dependent under the given member
func CreateTestDependent(t *testing.T, db *gorm.DB, member *models.Member, birthYear int) *models.Dependent {
	var existing int64
	if err := db.Model(&models.Dependent{}).Where("member_id = ?", member.ID).Count(&existing).Error; err != nil {
		t.Fatalf("Failed to count dependents: %v", err)
	}
	benefitNumber := FormatBenefitNumber(*member.MemberNumber, int(existing)+1)
	dependent := &models.Dependent{
		MemberID:      member.ID,
		Name:          "DEP",
		FirstSurname:  "TEST",
		BirthYear:     birthYear,
		ValidUntil:    member.ValidUntil,
		BenefitNumber: &benefitNumber,
	}
	if err := db.Create(dependent).Error; err != nil {
		t.Fatalf("Failed to create test dependent: %v", err)
	}
	return dependent
}

// CreateTestActivity inserts an activity starting at startsAt
func CreateTestActivity(t *testing.T, db *gorm.DB, name string, startsAt time.Time, capacity int, minAge, maxAge *int) *models.Activity {
	activity := &models.Activity{
		Name:        name,
		StartsAt:    startsAt,
		MaxCapacity: capacity,
		MinAge:      minAge,
		MaxAge:      maxAge,
		CreatedAt:   time.Now(),
	}
	if err := db.Create(activity).Error; err != nil {
		t.Fatalf("Failed to create test activity: %v", err)
	}
	return activity
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}
