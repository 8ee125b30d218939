package middleware

import (
	"net/http"
	"slices"
	"strings"
)

// CORSMiddleware allows the JSON API to be read from the given origins.
// A "*" entry allows any origin.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := allowedOrigin(r.Header.Get("Origin"), allowedOrigins); origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Max-Age", "3600")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// allowedOrigin returns the value of Access-Control-Allow-Origin for the request origin, or "" when not allowed.
// Credentials are allowed, so a wildcard echoes the origin back instead of "*".
func allowedOrigin(origin string, allowed []string) string {
	if origin == "" {
		return ""
	}
	if slices.Contains(allowed, "*") {
		return origin
	}
	for _, a := range allowed {
		if strings.EqualFold(origin, a) {
			return origin
		}
	}
	return ""
}
