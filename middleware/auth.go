package middleware

import (
	"context"
	"net/http"
	"strings"

	"leaddesk/backend/logger"
	"leaddesk/backend/models"
)

// Define context keys
type contextKey string

const SessionKey contextKey = "session"

// SessionProvider answers whether a bearer token belongs to a live session.
type SessionProvider interface {
	IsAuthenticated(ctx context.Context, token string) (models.Session, bool)
}

// RequireSession rejects requests without a live session and stores the session in the
// request context. The provider is asked once per request.
func RequireSession(provider SessionProvider) func(http.Handler) http.Handler {
	log := logger.For("auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip auth for OPTIONS requests (CORS preflight)
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token := TokenFromRequest(r)
			if token == "" {
				http.Error(w, "Unauthorized: No token provided", http.StatusUnauthorized)
				return
			}

			session, ok := provider.IsAuthenticated(r.Context(), token)
			if !ok {
				log.WithField("path", r.URL.Path).Debug("Rejected request with unknown or expired token")
				http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// TokenFromRequest reads the bearer token from the Authorization header, falling back
// to the auth query parameter.
func TokenFromRequest(r *http.Request) string {
	if token := extractToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	return r.URL.Query().Get("auth")
}

// extractToken gets the token from the Authorization header
func extractToken(authHeader string) string {
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// WithSession returns ctx carrying session.
func WithSession(ctx context.Context, session models.Session) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

// SessionFromContext retrieves the session stored by RequireSession.
func SessionFromContext(ctx context.Context) (models.Session, bool) {
	session, ok := ctx.Value(SessionKey).(models.Session)
	return session, ok
}

// GetEmployeeIDFromContext retrieves the employee ID from the request context
func GetEmployeeIDFromContext(r *http.Request) string {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		return ""
	}
	return session.EmployeeID
}
