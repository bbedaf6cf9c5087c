package services

import (
	"testing"
	"time"

	"github.com/jmurillo/asociacion-backend/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMember(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewMemberService(db)

	t.Run("assigns the first member number and normalizes the name", func(t *testing.T) {
		resp, err := service.CreateMember(&models.CreateMemberRequest{
			Name:          "José",
			FirstSurname:  "García",
			SecondSurname: "Ñúñez",
			Username:      "josegn1990",
			Password:      "secret123",
			Phone:         "600111222",
			BirthYear:     1990,
			PaymentMethod: "bizum",
			HouseholdSize: 1,
			Street:        "Calle Mayor",
			StreetNumber:  "5",
			Town:          "Madrid",
		})
		require.NoError(t, err)
		require.NotNil(t, resp.MemberNumber)
		assert.Equal(t, "0001", *resp.MemberNumber)
		assert.Equal(t, "JOSE GARCIA ÑUÑEZ", resp.Name)
		assert.Equal(t, "CALLE MAYOR", resp.Street)

		var stored models.Member
		require.NoError(t, db.First(&stored, resp.ID).Error)
		assert.NoError(t, stored.CheckPassword("secret123"))
		assert.Equal(t, "secret123", stored.PasswordPlain)
		assert.Equal(t, EndOfYear(time.Now()).Day(), stored.ValidUntil.Day())
	})

	t.Run("rejects a duplicate username", func(t *testing.T) {
		_, err := service.CreateMember(&models.CreateMemberRequest{
			Name:          "Otro",
			FirstSurname:  "Socio",
			Username:      "josegn1990",
			Password:      "secret123",
			Phone:         "600111333",
			BirthYear:     1980,
			PaymentMethod: "efectivo",
			HouseholdSize: 1,
			Street:        "Calle",
			StreetNumber:  "1",
			Town:          "Madrid",
		})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("rejects an unknown payment method", func(t *testing.T) {
		_, err := service.CreateMember(&models.CreateMemberRequest{
			Name:          "Ana",
			FirstSurname:  "Pérez",
			Username:      "anap1985",
			Password:      "secret123",
			Phone:         "600111444",
			BirthYear:     1985,
			PaymentMethod: "paypal",
			HouseholdSize: 1,
			Street:        "Calle",
			StreetNumber:  "1",
			Town:          "Madrid",
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects a birth year out of range", func(t *testing.T) {
		_, err := service.CreateMember(&models.CreateMemberRequest{
			Name:          "Ana",
			FirstSurname:  "Pérez",
			Username:      "anap1800",
			Password:      "secret123",
			Phone:         "600111555",
			BirthYear:     1800,
			PaymentMethod: "bizum",
			HouseholdSize: 1,
			Street:        "Calle",
			StreetNumber:  "1",
			Town:          "Madrid",
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("member numbers increase monotonically", func(t *testing.T) {
		resp, err := service.CreateMember(&models.CreateMemberRequest{
			Name:          "Segundo",
			FirstSurname:  "Socio",
			Username:      "segundos1975",
			Password:      "secret123",
			Phone:         "600111666",
			BirthYear:     1975,
			PaymentMethod: "transferencia",
			HouseholdSize: 2,
			Street:        "Calle",
			StreetNumber:  "2",
			Town:          "Madrid",
		})
		require.NoError(t, err)
		assert.Equal(t, "0002", *resp.MemberNumber)
	})
}

func TestUpdateMember(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewMemberService(db)
	member := CreateTestMember(t, db, "update_target", intPtr(1990))
	other := CreateTestMember(t, db, "taken_name", intPtr(1991))

	t.Run("applies only the provided fields", func(t *testing.T) {
		newName := "nuevo nombre"
		resp, err := service.UpdateMember(member.ID, &models.UpdateMemberRequest{Name: &newName})
		require.NoError(t, err)
		assert.Equal(t, "NUEVO NOMBRE", resp.Name)
		assert.Equal(t, member.Username, resp.Username)
	})

	t.Run("rejects a username already taken", func(t *testing.T) {
		_, err := service.UpdateMember(member.ID, &models.UpdateMemberRequest{Username: &other.Username})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("password change updates hash and plaintext", func(t *testing.T) {
		newPassword := "newsecret"
		_, err := service.UpdateMember(member.ID, &models.UpdateMemberRequest{Password: &newPassword})
		require.NoError(t, err)

		var stored models.Member
		require.NoError(t, db.First(&stored, member.ID).Error)
		assert.NoError(t, stored.CheckPassword("newsecret"))
		assert.Equal(t, "newsecret", stored.PasswordPlain)
	})

	t.Run("unknown member yields not found", func(t *testing.T) {
		_, err := service.UpdateMember(99999, &models.UpdateMemberRequest{})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRenewMember(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewMemberService(db)
	member := CreateTestMember(t, db, "renew_target", intPtr(1980))
	dependent := CreateTestDependent(t, db, member, 2015)

	// Force an expired validity
	lastYear := time.Now().AddDate(-1, 0, 0)
	require.NoError(t, db.Model(&models.Member{}).Where("id = ?", member.ID).Update("valid_until", lastYear).Error)
	require.NoError(t, db.Model(&models.Dependent{}).Where("id = ?", dependent.ID).Update("valid_until", lastYear).Error)

	resp, err := service.RenewMember(member.ID)
	require.NoError(t, err)

	want := EndOfYear(time.Now())
	got, err := time.Parse(time.RFC3339, resp.ValidUntil)
	require.NoError(t, err)
	assert.Equal(t, want.Year(), got.Year())
	assert.Equal(t, time.December, got.Month())
	assert.Equal(t, 31, got.Day())

	var storedDependent models.Dependent
	require.NoError(t, db.First(&storedDependent, dependent.ID).Error)
	assert.Equal(t, want.Year(), storedDependent.ValidUntil.Year())
	assert.Equal(t, 31, storedDependent.ValidUntil.Day())
}

func TestDeleteMemberCascades(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewMemberService(db)
	member := CreateTestMember(t, db, "delete_target", intPtr(1980))
	CreateTestDependent(t, db, member, 2012)
	activity := CreateTestActivity(t, db, "Taller", time.Now().Add(48*time.Hour), 10, nil, nil)

	registrations := NewRegistrationService(db)
	_, err := registrations.Register(member.ID, activity.ID, nil)
	require.NoError(t, err)

	require.NoError(t, service.DeleteMember(member.ID))

	var depCount, regCount int64
	require.NoError(t, db.Model(&models.Dependent{}).Where("member_id = ?", member.ID).Count(&depCount).Error)
	require.NoError(t, db.Model(&models.Registration{}).Where("member_id = ?", member.ID).Count(&regCount).Error)
	assert.Zero(t, depCount)
	assert.Zero(t, regCount)

	assert.ErrorIs(t, service.DeleteMember(member.ID), ErrNotFound)
}

func TestListExpiring(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewMemberService(db)

	soon := CreateTestMember(t, db, "expiring_soon", intPtr(1970))
	require.NoError(t, db.Model(&models.Member{}).Where("id = ?", soon.ID).
		Update("valid_until", time.Now().Add(10*24*time.Hour)).Error)

	far := CreateTestMember(t, db, "expiring_far", intPtr(1971))
	require.NoError(t, db.Model(&models.Member{}).Where("id = ?", far.ID).
		Update("valid_until", time.Now().Add(200*24*time.Hour)).Error)

	expired := CreateTestMember(t, db, "already_expired", intPtr(1972))
	require.NoError(t, db.Model(&models.Member{}).Where("id = ?", expired.ID).
		Update("valid_until", time.Now().Add(-24*time.Hour)).Error)

	members, err := service.ListExpiring(30 * 24 * time.Hour)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "expiring_soon", members[0].Username)
}

func TestHouseholdDirectory(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewMemberService(db)

	adult := CreateTestMember(t, db, "dir_adult", intPtr(1980))
	minorYear := time.Now().Year() - 10
	CreateTestDependent(t, db, adult, minorYear)

	t.Run("merges members and dependents", func(t *testing.T) {
		entries, err := service.HouseholdDirectory("", false)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		kinds := map[string]int{}
		for _, e := range entries {
			kinds[e.Kind]++
		}
		assert.Equal(t, 1, kinds[models.RosterKindMember])
		assert.Equal(t, 1, kinds[models.RosterKindDependent])
	})

	t.Run("member entry carries the member number as benefit number", func(t *testing.T) {
		entries, err := service.HouseholdDirectory("", false)
		require.NoError(t, err)
		for _, e := range entries {
			if e.Kind == models.RosterKindMember {
				require.NotNil(t, e.BenefitNumber)
				assert.Equal(t, *adult.MemberNumber, *e.BenefitNumber)
			}
		}
	})

	t.Run("minors filter drops adults", func(t *testing.T) {
		entries, err := service.HouseholdDirectory("", true)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, models.RosterKindDependent, entries[0].Kind)
	})

	t.Run("search is accent insensitive", func(t *testing.T) {
		entries, err := service.HouseholdDirectory("dép", false)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, models.RosterKindDependent, entries[0].Kind)
	})
}

func TestDashboardStats(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewMemberService(db)

	member := CreateTestMember(t, db, "stats_member", intPtr(1980))
	CreateTestDependent(t, db, member, 2015)
	CreateTestActivity(t, db, "Futura", time.Now().Add(24*time.Hour), 5, nil, nil)
	CreateTestActivity(t, db, "Pasada", time.Now().Add(-24*time.Hour), 5, nil, nil)
	require.NoError(t, db.Create(&models.MembershipRequest{
		Name: "PEND", FirstSurname: "IENTE", SecondSurname: "X",
		Phone: "611111111", HouseholdSize: 1,
		PaymentMethod: models.PaymentMethodBizum,
		Status:        models.RequestStatusPending,
		RequestedAt:   time.Now(), Token: "stats-token",
		Street: "C", StreetNumber: "1", Town: "T",
	}).Error)

	stats, err := service.DashboardStats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalMembers)
	assert.Equal(t, int64(1), stats.TotalDependents)
	assert.Equal(t, int64(1), stats.PendingRequests)
	assert.Equal(t, int64(1), stats.UpcomingCount)
}
