package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmurillo/asociacion-backend/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSessionConfig(ttl time.Duration) *SessionConfig {
	return &SessionConfig{Secret: []byte("test-secret"), TTL: ttl}
}

func testMember() *models.Member {
	return &models.Member{ID: 7, Username: "jmurillo", Role: models.RoleBoard}
}

func TestSessionCookieRoundTrip(t *testing.T) {
	config := testSessionConfig(time.Hour)
	cookie, err := config.IssueCookie(testMember())
	require.NoError(t, err)
	assert.Equal(t, SessionCookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)

	user, err := config.Parse(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, uint(7), user.MemberID)
	assert.Equal(t, "jmurillo", user.Username)
	assert.True(t, user.IsBoard())
}

func TestSessionParseRejections(t *testing.T) {
	config := testSessionConfig(time.Hour)

	t.Run("garbage token", func(t *testing.T) {
		_, err := config.Parse("not-a-token")
		assert.Error(t, err)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := &SessionConfig{Secret: []byte("other-secret"), TTL: time.Hour}
		cookie, err := other.IssueCookie(testMember())
		require.NoError(t, err)
		_, err = config.Parse(cookie.Value)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := testSessionConfig(-time.Minute)
		cookie, err := expired.IssueCookie(testMember())
		require.NoError(t, err)
		_, err = config.Parse(cookie.Value)
		assert.Error(t, err)
	})
}

func TestAuthenticate(t *testing.T) {
	config := testSessionConfig(time.Hour)
	middleware := NewSessionAuthMiddleware(config)

	var captured *models.AuthenticatedUser
	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = models.AuthenticatedUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing cookie is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid cookie passes and fills the context", func(t *testing.T) {
		cookie, err := config.IssueCookie(testMember())
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, captured)
		assert.Equal(t, "jmurillo", captured.Username)
	})
}

func TestRequireBoard(t *testing.T) {
	handler := RequireBoard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("no principal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/members", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("member role is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/members", nil)
		ctx := models.WithAuthenticatedUser(req.Context(), &models.AuthenticatedUser{Role: models.RoleMember})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("board role passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/members", nil)
		ctx := models.WithAuthenticatedUser(req.Context(), &models.AuthenticatedUser{Role: models.RoleBoard})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
