package services

import (
	"testing"
	"time"

	"github.com/jmurillo/asociacion-backend/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImportRoundTrip(t *testing.T) {
	source := SetupSQLiteTestDB(t)
	member := CreateTestMember(t, source, "export_member", intPtr(1990))
	CreateTestDependent(t, source, member, 2015)
	activity := CreateTestActivity(t, source, "Exportada", time.Now().Add(24*time.Hour), 10, nil, nil)
	_, err := NewRegistrationService(source).Register(member.ID, activity.ID, nil)
	require.NoError(t, err)

	export, err := NewExportService(source).Export()
	require.NoError(t, err)
	assert.Equal(t, models.ExportVersion, export.Version)
	assert.Len(t, export.Members, 1)
	assert.Len(t, export.Dependents, 1)
	assert.Len(t, export.Activities, 1)
	assert.Len(t, export.Registrations, 1)

	target := SetupSQLiteTestDB(t)
	summary, err := NewExportService(target).Import(export, models.ImportModeMerge)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Members)
	assert.Equal(t, 1, summary.Dependents)
	assert.Equal(t, 1, summary.Activities)
	assert.Equal(t, 1, summary.Registrations)
	assert.Zero(t, summary.Skipped)

	reexport, err := NewExportService(target).Export()
	require.NoError(t, err)
	assert.Len(t, reexport.Members, 1)
	assert.Equal(t, export.Members[0].Username, reexport.Members[0].Username)
}

func TestImportMergeSkipsExisting(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	CreateTestMember(t, db, "already_here", intPtr(1980))

	export, err := NewExportService(db).Export()
	require.NoError(t, err)

	summary, err := NewExportService(db).Import(export, models.ImportModeMerge)
	require.NoError(t, err)
	assert.Zero(t, summary.Members)
	assert.Equal(t, 1, summary.Skipped)

	var count int64
	require.NoError(t, db.Model(&models.Member{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestImportMergeSkipsByUniqueKey(t *testing.T) {
	tomorrow := time.Now().Add(24 * time.Hour)

	t.Run("duplicate username under a fresh ID", func(t *testing.T) {
		source := SetupSQLiteTestDB(t)
		CreateTestMember(t, source, "dup_user", intPtr(1990))
		export, err := NewExportService(source).Export()
		require.NoError(t, err)

		export.Members[0].ID = 999
		export.Members[0].MemberNumber = strPtr("9999")

		target := SetupSQLiteTestDB(t)
		CreateTestMember(t, target, "dup_user", intPtr(1990))

		summary, err := NewExportService(target).Import(export, models.ImportModeMerge)
		require.NoError(t, err)
		assert.Zero(t, summary.Members)
		assert.Equal(t, 1, summary.Skipped)

		var count int64
		require.NoError(t, target.Model(&models.Member{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("duplicate request token under a fresh ID", func(t *testing.T) {
		source := SetupSQLiteTestDB(t)
		_, err := NewRequestService(source).CreateRequest(signupPayload("600000092"))
		require.NoError(t, err)
		export, err := NewExportService(source).Export()
		require.NoError(t, err)

		target := SetupSQLiteTestDB(t)
		first, err := NewExportService(target).Import(export, models.ImportModeMerge)
		require.NoError(t, err)
		require.Equal(t, 1, first.MembershipRequests)

		export.MembershipRequests[0].ID = 999
		second, err := NewExportService(target).Import(export, models.ImportModeMerge)
		require.NoError(t, err)
		assert.Zero(t, second.MembershipRequests)
	})

	t.Run("duplicate registration triple under a fresh ID", func(t *testing.T) {
		source := SetupSQLiteTestDB(t)
		member := CreateTestMember(t, source, "triple_user", intPtr(1990))
		activity := CreateTestActivity(t, source, "Repetida", tomorrow, 10, nil, nil)
		_, err := NewRegistrationService(source).Register(member.ID, activity.ID, nil)
		require.NoError(t, err)
		export, err := NewExportService(source).Export()
		require.NoError(t, err)

		target := SetupSQLiteTestDB(t)
		_, err = NewExportService(target).Import(export, models.ImportModeMerge)
		require.NoError(t, err)

		export.Registrations[0].ID = 999
		summary, err := NewExportService(target).Import(export, models.ImportModeMerge)
		require.NoError(t, err)
		assert.Zero(t, summary.Registrations)
		assert.Equal(t, 3, summary.Skipped)
	})
}

func TestImportReplaceWipes(t *testing.T) {
	source := SetupSQLiteTestDB(t)
	CreateTestMember(t, source, "incoming", intPtr(1980))
	export, err := NewExportService(source).Export()
	require.NoError(t, err)

	target := SetupSQLiteTestDB(t)
	CreateTestMember(t, target, "to_be_replaced", intPtr(1970))

	summary, err := NewExportService(target).Import(export, models.ImportModeReplace)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Members)

	var members []models.Member
	require.NoError(t, target.Find(&members).Error)
	require.Len(t, members, 1)
	assert.Equal(t, "incoming", members[0].Username)
}

func TestImportRejectsBadInput(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewExportService(db)

	_, err := service.Import(&models.DataExport{Version: models.ExportVersion}, "upsert")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = service.Import(&models.DataExport{Version: "2.0"}, models.ImportModeMerge)
	assert.ErrorIs(t, err, ErrValidation)
}
