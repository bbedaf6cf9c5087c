package services

import (
	"testing"
	"time"

	"github.com/jmurillo/asociacion-backend/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewRegistrationService(db)
	tomorrow := time.Now().Add(24 * time.Hour)

	t.Run("registers the member themselves", func(t *testing.T) {
		member := CreateTestMember(t, db, "reg_self", intPtr(1990))
		activity := CreateTestActivity(t, db, "Paella", tomorrow, 10, nil, nil)

		registration, err := service.Register(member.ID, activity.ID, nil)
		require.NoError(t, err)
		assert.Nil(t, registration.DependentID)
		assert.False(t, registration.Attended)
	})

	t.Run("registers a dependent of the member", func(t *testing.T) {
		member := CreateTestMember(t, db, "reg_dep", intPtr(1985))
		dependent := CreateTestDependent(t, db, member, 2016)
		activity := CreateTestActivity(t, db, "Taller infantil", tomorrow, 10, nil, nil)

		registration, err := service.Register(member.ID, activity.ID, &dependent.ID)
		require.NoError(t, err)
		require.NotNil(t, registration.DependentID)
		assert.Equal(t, dependent.ID, *registration.DependentID)
	})

	t.Run("rejects someone else's dependent", func(t *testing.T) {
		owner := CreateTestMember(t, db, "reg_owner", intPtr(1985))
		dependent := CreateTestDependent(t, db, owner, 2016)
		intruder := CreateTestMember(t, db, "reg_intruder", intPtr(1986))
		activity := CreateTestActivity(t, db, "Excursión", tomorrow, 10, nil, nil)

		_, err := service.Register(intruder.ID, activity.ID, &dependent.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("rejects a duplicate registration", func(t *testing.T) {
		member := CreateTestMember(t, db, "reg_dup", intPtr(1990))
		activity := CreateTestActivity(t, db, "Cine", tomorrow, 10, nil, nil)

		_, err := service.Register(member.ID, activity.ID, nil)
		require.NoError(t, err)
		_, err = service.Register(member.ID, activity.ID, nil)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("member and dependent registrations do not collide", func(t *testing.T) {
		member := CreateTestMember(t, db, "reg_both", intPtr(1990))
		dependent := CreateTestDependent(t, db, member, 2014)
		activity := CreateTestActivity(t, db, "Senderismo", tomorrow, 10, nil, nil)

		_, err := service.Register(member.ID, activity.ID, nil)
		require.NoError(t, err)
		_, err = service.Register(member.ID, activity.ID, &dependent.ID)
		assert.NoError(t, err)
	})

	t.Run("enforces the capacity boundary", func(t *testing.T) {
		first := CreateTestMember(t, db, "reg_cap1", intPtr(1990))
		second := CreateTestMember(t, db, "reg_cap2", intPtr(1991))
		activity := CreateTestActivity(t, db, "Plaza única", tomorrow, 1, nil, nil)

		_, err := service.Register(first.ID, activity.ID, nil)
		require.NoError(t, err)
		_, err = service.Register(second.ID, activity.ID, nil)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects a past activity", func(t *testing.T) {
		member := CreateTestMember(t, db, "reg_past", intPtr(1990))
		activity := CreateTestActivity(t, db, "Ya pasó", time.Now().Add(-time.Hour), 10, nil, nil)

		_, err := service.Register(member.ID, activity.ID, nil)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("age window admits and rejects by birth year", func(t *testing.T) {
		now := time.Now()
		activity := CreateTestActivity(t, db, "Infantil 5-12", tomorrow, 20, intPtr(5), intPtr(12))

		okMember := CreateTestMember(t, db, "reg_age_ok", intPtr(now.Year()-10))
		_, err := service.Register(okMember.ID, activity.ID, nil)
		assert.NoError(t, err)

		tooYoung := CreateTestMember(t, db, "reg_age_young", intPtr(now.Year()-3))
		_, err = service.Register(tooYoung.ID, activity.ID, nil)
		assert.ErrorIs(t, err, ErrValidation)

		tooOld := CreateTestMember(t, db, "reg_age_old", intPtr(now.Year()-20))
		_, err = service.Register(tooOld.ID, activity.ID, nil)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown birth year is rejected when a window exists", func(t *testing.T) {
		activity := CreateTestActivity(t, db, "Con ventana", tomorrow, 20, intPtr(5), intPtr(12))
		member := CreateTestMember(t, db, "reg_age_unknown", nil)

		_, err := service.Register(member.ID, activity.ID, nil)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown birth year passes without a window", func(t *testing.T) {
		activity := CreateTestActivity(t, db, "Sin ventana", tomorrow, 20, nil, nil)
		member := CreateTestMember(t, db, "reg_no_window", nil)

		_, err := service.Register(member.ID, activity.ID, nil)
		assert.NoError(t, err)
	})
}

func TestCancel(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewRegistrationService(db)
	tomorrow := time.Now().Add(24 * time.Hour)

	t.Run("cancels an existing registration", func(t *testing.T) {
		member := CreateTestMember(t, db, "cancel_ok", intPtr(1990))
		activity := CreateTestActivity(t, db, "Concierto", tomorrow, 10, nil, nil)
		_, err := service.Register(member.ID, activity.ID, nil)
		require.NoError(t, err)

		require.NoError(t, service.Cancel(member.ID, activity.ID, nil))

		var count int64
		require.NoError(t, db.Model(&models.Registration{}).
			Where("member_id = ? AND activity_id = ?", member.ID, activity.ID).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("cancelling a missing registration is an error and changes nothing", func(t *testing.T) {
		member := CreateTestMember(t, db, "cancel_none", intPtr(1990))
		activity := CreateTestActivity(t, db, "Sin inscripción", tomorrow, 10, nil, nil)

		err := service.Cancel(member.ID, activity.ID, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("cancelling the member entry leaves the dependent entry", func(t *testing.T) {
		member := CreateTestMember(t, db, "cancel_partial", intPtr(1990))
		dependent := CreateTestDependent(t, db, member, 2015)
		activity := CreateTestActivity(t, db, "Parcial", tomorrow, 10, nil, nil)
		_, err := service.Register(member.ID, activity.ID, nil)
		require.NoError(t, err)
		_, err = service.Register(member.ID, activity.ID, &dependent.ID)
		require.NoError(t, err)

		require.NoError(t, service.Cancel(member.ID, activity.ID, nil))

		var count int64
		require.NoError(t, db.Model(&models.Registration{}).
			Where("member_id = ? AND activity_id = ?", member.ID, activity.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func TestListForMember(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewRegistrationService(db)

	member := CreateTestMember(t, db, "list_regs", intPtr(1990))
	later := CreateTestActivity(t, db, "Más tarde", time.Now().Add(72*time.Hour), 10, nil, nil)
	sooner := CreateTestActivity(t, db, "Antes", time.Now().Add(24*time.Hour), 10, nil, nil)
	_, err := service.Register(member.ID, sooner.ID, nil)
	require.NoError(t, err)
	_, err = service.Register(member.ID, later.ID, nil)
	require.NoError(t, err)

	registrations, err := service.ListForMember(member.ID)
	require.NoError(t, err)
	require.Len(t, registrations, 2)
	assert.Equal(t, later.ID, registrations[0].ActivityID)
	assert.Equal(t, sooner.ID, registrations[1].ActivityID)
}
