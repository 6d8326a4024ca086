package middleware

import (
	"net/http"
	"strings"

	"leaddesk/backend/logger"
)

// defaultOrigins are used when no origins are configured
var defaultOrigins = []string{
	"http://localhost:5173", // Vite development server
	"http://localhost:3000", // Alternative local development
	"http://localhost:8080", // Backend port
}

// CORS creates a middleware that handles CORS headers. In development any origin is echoed back.
func CORS(allowedOrigins []string, development bool) func(http.Handler) http.Handler {
	origins := cleanOrigins(allowedOrigins)
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	log := logger.For("cors")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			switch {
			case isAllowedOrigin(origin, origins):
				w.Header().Set("Access-Control-Allow-Origin", origin)
			case development && origin != "":
				log.WithField("origin", origin).Debug("Development mode: allowing origin")
				w.Header().Set("Access-Control-Allow-Origin", origin)
			default:
				w.Header().Set("Access-Control-Allow-Origin", origins[0])
			}
			w.Header().Add("Vary", "Origin")

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
			w.Header().Set("Access-Control-Allow-Headers",
				"Content-Type, Authorization, X-Requested-With, Accept, Origin, Access-Control-Request-Method, Access-Control-Request-Headers")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Max-Age", "3600")

			// Handle preflight requests
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func cleanOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, strings.TrimRight(o, "/"))
		}
	}
	return out
}

// isAllowedOrigin checks if the provided origin is in the allowed list
func isAllowedOrigin(origin string, allowedOrigins []string) bool {
	if origin == "" {
		return false
	}

	for _, allowed := range allowedOrigins {
		if origin == allowed {
			return true
		}
	}

	return false
}
