package middleware

import (
	"net/http"
	"slices"
)

// RequireRole is a middleware that lets through sessions whose role is one of roles.
// It must run after RequireSession.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized: No session found", http.StatusUnauthorized)
				return
			}

			if !slices.Contains(roles, session.Role) {
				http.Error(w, "Forbidden: Insufficient role privileges", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
