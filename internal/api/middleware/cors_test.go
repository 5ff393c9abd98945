package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kampuskuevent/server/internal/config"
	"github.com/rs/zerolog"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS_AllowAllOrigins(t *testing.T) {
	cfg := config.CORSConfig{AllowAllOrigins: true}

	handler := CORS(cfg, zerolog.Nop())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("expected Access-Control-Allow-Origin: http://localhost:3000, got %s", got)
	}
}

func TestCORS_AllowedOrigin(t *testing.T) {
	cfg := config.CORSConfig{AllowedOrigins: []string{"https://kampusku.ac.id", "https://admin.kampusku.ac.id"}}

	handler := CORS(cfg, zerolog.Nop())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("Origin", "https://KAMPUSKU.ac.id")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://KAMPUSKU.ac.id" {
		t.Errorf("expected origin echoed back, got %s", got)
	}
}

func TestCORS_BlockedOrigin(t *testing.T) {
	cfg := config.CORSConfig{AllowedOrigins: []string{"https://kampusku.ac.id"}}

	handler := CORS(cfg, zerolog.Nop())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	// Request still succeeds but without CORS headers
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no Access-Control-Allow-Origin header, got %s", got)
	}
}

func TestCORS_NoOriginHeader(t *testing.T) {
	handler := CORS(config.CORSConfig{AllowAllOrigins: true}, zerolog.Nop())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS headers for same-origin request, got %s", got)
	}
}

func TestCORS_PreflightAllowsAdminHeader(t *testing.T) {
	handler := CORS(config.CORSConfig{AllowAllOrigins: true}, zerolog.Nop(), "X-API-Key")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called for OPTIONS preflight")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/events", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status 204 for OPTIONS, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "X-API-Key") {
		t.Errorf("expected admin header to be allowed, got %s", got)
	}
	if got := rec.Header().Get("Access-Control-Max-Age"); got != "86400" {
		t.Errorf("expected Access-Control-Max-Age: 86400, got %s", got)
	}
}
