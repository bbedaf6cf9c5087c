package models

import "context"

// AuthenticatedUser is the request-scoped principal extracted from the
// session cookie. Handlers receive it through the request context instead
// of reading ambient global state.
type AuthenticatedUser struct {
	MemberID uint   `json:"memberId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsBoard reports whether the principal has board privileges
func (u *AuthenticatedUser) IsBoard() bool {
	return u.Role == RoleBoard
}

type contextKey string

const authenticatedUserKey contextKey = "authenticatedUser"

// WithAuthenticatedUser returns a context carrying the principal
func WithAuthenticatedUser(ctx context.Context, user *AuthenticatedUser) context.Context {
	return context.WithValue(ctx, authenticatedUserKey, user)
}

// AuthenticatedUserFromContext extracts the principal from ctx, if any
func AuthenticatedUserFromContext(ctx context.Context) (*AuthenticatedUser, bool) {
	user, ok := ctx.Value(authenticatedUserKey).(*AuthenticatedUser)
	return user, ok
}

// LoginRequest is the credential payload for session creation
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned on successful login
type LoginResponse struct {
	MemberID uint   `json:"memberId"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
