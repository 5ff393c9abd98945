package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/kampuskuevent/server/internal/api/problem"
)

// Recovery converts a panic in next into a 500 problem response. It must
// run inside CorrelationID so the panic is logged with the request ID.
func Recovery(env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}
				LoggerFromContext(r.Context()).Error().
					Interface("panic", recovered).
					Str("stack", string(debug.Stack())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("panic recovered")
				problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error",
					fmt.Errorf("panic: %v", recovered), env)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
