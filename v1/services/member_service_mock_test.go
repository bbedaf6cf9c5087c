package services

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupMemberMockDB creates a mock database for testing the postgres
// failure paths that an in-memory SQLite database cannot produce.
func setupMemberMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	var db *sql.DB
	var mock sqlmock.Sqlmock
	var err error

	db, mock, err = sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	dialector := postgres.New(postgres.Config{
		Conn:       db,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open gorm db: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return gormDB, mock, cleanup
}

func TestGetMember_NotFound(t *testing.T) {
	db, mock, cleanup := setupMemberMockDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT .* FROM "members"`).
		WillReturnError(gorm.ErrRecordNotFound)

	service := NewMemberService(db)
	_, err := service.GetMember(42)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMemberByUsername_QueryFailure(t *testing.T) {
	db, mock, cleanup := setupMemberMockDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT .* FROM "members"`).
		WillReturnError(errors.New("connection reset by peer"))

	service := NewMemberService(db)
	_, err := service.GetMemberByUsername("josegn1990")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListExpiring_QueryShape(t *testing.T) {
	db, mock, cleanup := setupMemberMockDB(t)
	defer cleanup()

	validUntil := time.Now().Add(10 * 24 * time.Hour)
	mock.ExpectQuery(`SELECT .* FROM "members" WHERE valid_until > .* ORDER BY valid_until`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "username", "valid_until"}).
			AddRow(uint(1), "EXPIRING MEMBER", "expiring1", validUntil))

	service := NewMemberService(db)
	members, err := service.ListExpiring(30 * 24 * time.Hour)

	assert.NoError(t, err)
	assert.Len(t, members, 1)
	assert.Equal(t, "expiring1", members[0].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardStats_CountFailure(t *testing.T) {
	db, mock, cleanup := setupMemberMockDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "members"`).
		WillReturnError(errors.New("relation does not exist"))

	service := NewMemberService(db)
	_, err := service.DashboardStats()

	assert.ErrorContains(t, err, "failed to compute dashboard stats")
	assert.NoError(t, mock.ExpectationsWereMet())
}
