package middleware

import (
	"net/http"

	"github.com/jmurillo/asociacion-backend/shared/utils"
	"github.com/jmurillo/asociacion-backend/v1/models"
)

// RequireBoard guards board-only routes. It runs after Authenticate and
// rejects any principal without the board role.
func RequireBoard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := models.AuthenticatedUserFromContext(r.Context())
		if !ok {
			utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !user.IsBoard() {
			utils.RespondWithError(w, http.StatusForbidden, "Board privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
