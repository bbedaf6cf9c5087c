package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmurillo/asociacion-backend/shared/utils"
	"github.com/jmurillo/asociacion-backend/v1/models"
)

// SessionCookieName is the cookie carrying the signed session token
const SessionCookieName = "asociacion_session"

// SessionConfig holds the signing parameters for session cookies
type SessionConfig struct {
	Secret []byte
	TTL    time.Duration
	Secure bool
}

// NewSessionConfigFromEnv reads the session configuration. SESSION_SECRET
// must be set; the TTL defaults to 12 hours.
func NewSessionConfigFromEnv() (*SessionConfig, error) {
	secret := utils.GetEnvOrDefault("SESSION_SECRET", "")
	if secret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is required")
	}
	ttl, err := time.ParseDuration(utils.GetEnvOrDefault("SESSION_TTL", "12h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	return &SessionConfig{
		Secret: []byte(secret),
		TTL:    ttl,
		Secure: utils.GetEnvOrDefault("SESSION_SECURE", "false") == "true",
	}, nil
}

type sessionClaims struct {
	MemberID uint   `json:"memberId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// IssueCookie signs a session token for the member and wraps it in a cookie
func (c *SessionConfig) IssueCookie(member *models.Member) (*http.Cookie, error) {
	now := time.Now()
	claims := sessionClaims{
		MemberID: member.ID,
		Username: member.Username,
		Role:     member.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.TTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// ClearCookie returns an expired cookie that removes the session
func (c *SessionConfig) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Parse validates a raw session token and returns the principal
func (c *SessionConfig) Parse(raw string) (*models.AuthenticatedUser, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}
	return &models.AuthenticatedUser{
		MemberID: claims.MemberID,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}

// SessionAuthMiddleware authenticates requests through the session cookie
type SessionAuthMiddleware struct {
	config *SessionConfig
}

// NewSessionAuthMiddleware creates the session authentication middleware
func NewSessionAuthMiddleware(config *SessionConfig) *SessionAuthMiddleware {
	return &SessionAuthMiddleware{config: config}
}

// Authenticate rejects requests without a valid session cookie and
// stores the principal in the request context.
func (m *SessionAuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		user, err := m.config.Parse(cookie.Value)
		if err != nil {
			slog.Debug("Session rejected", "error", err)
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired session")
			return
		}
		next.ServeHTTP(w, r.WithContext(models.WithAuthenticatedUser(r.Context(), user)))
	})
}
