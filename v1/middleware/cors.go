package middleware

import (
	"net/http"

	"github.com/jmurillo/asociacion-backend/shared/utils"
)

// NewCORSMiddleware returns a middleware that answers preflight requests
// and sets the CORS headers. The allowed origin comes from CORS_ORIGIN
// and defaults to any.
func NewCORSMiddleware() func(http.Handler) http.Handler {
	origin := utils.GetEnvOrDefault("CORS_ORIGIN", "*")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
