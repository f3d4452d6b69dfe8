package middleware

import (
	"net/http"

	"github.com/solventa/solventa-backend/internal/api/httpx"
)

// RequireRole allows only the given role through; it must sit behind
// Auth so the claims are already in the context.
func RequireRole(need string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := Role(r.Context())
			if !ok || role != need {
				httpx.WriteError(w, http.StatusForbidden, "forbidden", "insufficient role", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
