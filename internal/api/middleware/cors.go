package middleware

import (
	"net/http"
	"strings"

	"github.com/kampuskuevent/server/internal/config"
	"github.com/rs/zerolog"
)

var corsBaseHeaders = []string{"Content-Type", "Accept", RequestIDHeader}

// CORS handles Cross-Origin Resource Sharing for browser clients.
//
// With AllowAllOrigins every origin is echoed back; otherwise the origin
// must match an entry of AllowedOrigins (case-insensitive). extraHeaders are
// appended to Access-Control-Allow-Headers so browsers may send the admin
// token header.
//
// Preflight requests (OPTIONS with an Origin) are answered with 204.
func CORS(cfg config.CORSConfig, logger zerolog.Logger, extraHeaders ...string) func(http.Handler) http.Handler {
	allowHeaders := strings.Join(append(append([]string{}, corsBaseHeaders...), extraHeaders...), ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// Same-origin and non-browser requests
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if cfg.AllowAllOrigins || isOriginAllowed(origin, cfg.AllowedOrigins) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", allowHeaders)
				h.Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")
				h.Set("Access-Control-Max-Age", "86400")
			} else {
				logger.Warn().
					Str("origin", origin).
					Str("path", r.URL.Path).
					Str("method", r.Method).
					Msg("CORS request rejected: origin not in whitelist")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isOriginAllowed performs a case-insensitive exact match.
func isOriginAllowed(origin string, allowedOrigins []string) bool {
	origin = strings.ToLower(strings.TrimSpace(origin))
	for _, allowed := range allowedOrigins {
		if strings.ToLower(strings.TrimSpace(allowed)) == origin {
			return true
		}
	}
	return false
}
