package middleware

import (
	"errors"
	"net/http"

	"github.com/kampuskuevent/server/internal/api/problem"
	"github.com/kampuskuevent/server/internal/auth"
	"github.com/kampuskuevent/server/internal/metrics"
)

// AdminAuth rejects requests whose header does not carry the shared admin
// secret. Rejections are answered with 401 before next runs, so nothing is
// read from or written to storage.
func AdminAuth(verifier *auth.Verifier, header string, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromRequest(r, header)
			if err == nil {
				err = verifier.Verify(token)
			}
			if err != nil {
				reason := "invalid"
				if errors.Is(err, auth.ErrMissingAdminToken) {
					reason = "missing"
				}
				metrics.AdminAuthFailures.WithLabelValues(reason).Inc()
				w.Header().Set("WWW-Authenticate", `APIKey header="`+header+`"`)
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", err, env,
					problem.WithDetail("Invalid or missing admin token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
