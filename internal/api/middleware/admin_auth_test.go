package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kampuskuevent/server/internal/api/problem"
	"github.com/kampuskuevent/server/internal/auth"
	"github.com/kampuskuevent/server/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestAdminAuth(t *testing.T) {
	verifier := auth.NewVerifier("admintoken123", "")

	cases := []struct {
		name   string
		token  string
		status int
		reason string
	}{
		{name: "valid token", token: "admintoken123", status: http.StatusCreated},
		{name: "missing token", token: "", status: http.StatusUnauthorized, reason: "missing"},
		{name: "wrong token", token: "nope", status: http.StatusUnauthorized, reason: "invalid"},
		{name: "padded token", token: "admintoken123 ", status: http.StatusUnauthorized, reason: "invalid"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			handler := AdminAuth(verifier, "X-API-Key", "test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusCreated)
			}))

			var before float64
			if tc.reason != "" {
				before = testutil.ToFloat64(metrics.AdminAuthFailures.WithLabelValues(tc.reason))
			}

			req := httptest.NewRequest(http.MethodPost, "/events", nil)
			if tc.token != "" {
				req.Header.Set("X-API-Key", tc.token)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, tc.status != http.StatusUnauthorized, called)

			if tc.reason != "" {
				var body problem.ProblemDetails
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				require.Equal(t, problem.TypeUnauthorized, body.Type)
				require.Equal(t, "Invalid or missing admin token", body.Detail)
				require.Equal(t, before+1, testutil.ToFloat64(metrics.AdminAuthFailures.WithLabelValues(tc.reason)))
			}
		})
	}
}

func TestAdminAuthUsesConfiguredHeader(t *testing.T) {
	handler := AdminAuth(auth.NewVerifier("s3cret", ""), "X-Admin-Token", "test")(okHandler())

	req := httptest.NewRequest(http.MethodDelete, "/events/1", nil)
	req.Header.Set("X-API-Key", "s3cret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req.Header.Set("X-Admin-Token", "s3cret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminAuthUnconfiguredRejectsAll(t *testing.T) {
	handler := AdminAuth(auth.NewVerifier("", ""), "X-API-Key", "test")(okHandler())

	req := httptest.NewRequest(http.MethodPut, "/events/1", nil)
	req.Header.Set("X-API-Key", "anything")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
