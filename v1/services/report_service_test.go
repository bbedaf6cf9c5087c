package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestMembersExcel(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	member := CreateTestMember(t, db, "excel_member", intPtr(1990))
	CreateTestDependent(t, db, member, 2015)

	data, err := NewReportService(db).MembersExcel()
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Socios")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Nº Socio", rows[0][0])
	assert.Equal(t, *member.MemberNumber, rows[1][0])
	assert.Equal(t, member.Username, rows[1][2])
	assert.Equal(t, "secret123", rows[1][3])
	assert.Equal(t, "1", rows[1][10])
}

func TestRequestsExcel(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	_, err := NewRequestService(db).CreateRequest(signupPayload("600000090"))
	require.NoError(t, err)

	data, err := NewReportService(db).RequestsExcel()
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Solicitudes")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "JOSE", rows[1][1])
	assert.Equal(t, "pending", rows[1][6])
}

func TestPDFReports(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewReportService(db)

	member := CreateTestMember(t, db, "pdf_member", intPtr(1990))
	CreateTestDependent(t, db, member, 2015)
	activity := CreateTestActivity(t, db, "Fiesta mayor", time.Now().Add(24*time.Hour), 10, nil, nil)
	_, err := NewRegistrationService(db).Register(member.ID, activity.ID, nil)
	require.NoError(t, err)

	created, err := NewRequestService(db).CreateRequest(signupPayload("600000091"))
	require.NoError(t, err)
	request, err := NewRequestService(db).GetRequest(created.ID)
	require.NoError(t, err)

	loaded, err := NewMemberService(db).GetMember(member.ID)
	require.NoError(t, err)

	cases := []struct {
		name   string
		render func() ([]byte, error)
	}{
		{"activities listing", service.ActivitiesPDF},
		{"activity roster", func() ([]byte, error) { return service.ActivityRosterPDF(activity.ID) }},
		{"membership card", func() ([]byte, error) { return service.MembershipCardPDF(loaded) }},
		{"request confirmation", func() ([]byte, error) { return service.RequestConfirmationPDF(request) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := tc.render()
			require.NoError(t, err)
			require.NotEmpty(t, data)
			assert.True(t, bytes.HasPrefix(data, []byte("%PDF")), "output should be a PDF document")
		})
	}

	t.Run("roster for a missing activity yields not found", func(t *testing.T) {
		_, err := service.ActivityRosterPDF(99999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
