package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HealthStore is the slice of storage the health checks need.
type HealthStore interface {
	Ping(ctx context.Context) error
	MigrationVersion() (version uint, dirty bool, err error)
}

// HealthCheck represents the health status of the server
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Driver    string                 `json:"driver,omitempty"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	LatencyMs int64          `json:"latency_ms"`
	Details   map[string]any `json:"details,omitempty"`
}

type HealthChecker struct {
	store     HealthStore
	driver    string
	version   string
	gitCommit string
}

func NewHealthChecker(store HealthStore, driver, version, gitCommit string) *HealthChecker {
	return &HealthChecker{
		store:     store,
		driver:    driver,
		version:   version,
		gitCommit: gitCommit,
	}
}

// Health reports storage connectivity and migration state. Any failing
// check makes the whole response 503.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			respondHealth(w, http.StatusServiceUnavailable, "shutting_down")
			return
		default:
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]CheckResult{
			"database":   h.checkDatabase(ctx),
			"migrations": h.checkMigrations(),
		}

		overallStatus := "healthy"
		statusCode := http.StatusOK
		for _, check := range checks {
			if check.Status == "fail" {
				overallStatus = "unhealthy"
				statusCode = http.StatusServiceUnavailable
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(HealthCheck{
			Status:    overallStatus,
			Version:   h.version,
			GitCommit: h.gitCommit,
			Driver:    h.driver,
			Checks:    checks,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// Readyz answers 200 only while storage responds to a ping.
func (h *HealthChecker) Readyz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if h.store == nil || h.store.Ping(ctx) != nil {
			respondHealth(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		respondHealth(w, http.StatusOK, "ready")
	})
}

func (h *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	if h.store == nil {
		return CheckResult{Status: "fail", Message: "Storage not initialized"}
	}

	dbCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.store.Ping(dbCtx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		message := "Database ping failed"
		if dbCtx.Err() == context.DeadlineExceeded {
			message = "Database ping timed out after 2 seconds"
		}
		return CheckResult{
			Status:    "fail",
			Message:   message,
			LatencyMs: latency,
			Details:   map[string]any{"error": err.Error()},
		}
	}

	return CheckResult{Status: "pass", Message: "Database reachable", LatencyMs: latency}
}

func (h *HealthChecker) checkMigrations() CheckResult {
	if h.store == nil {
		return CheckResult{Status: "fail", Message: "Storage not initialized"}
	}

	start := time.Now()
	version, dirty, err := h.store.MigrationVersion()
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return CheckResult{
			Status:    "fail",
			Message:   "Failed to read migration version",
			LatencyMs: latency,
			Details:   map[string]any{"error": err.Error()},
		}
	}
	if dirty {
		return CheckResult{
			Status:    "fail",
			Message:   "Database in dirty migration state - manual intervention required",
			LatencyMs: latency,
			Details:   map[string]any{"version": version, "dirty": true},
		}
	}
	if version == 0 {
		return CheckResult{
			Status:    "fail",
			Message:   "No migrations applied",
			LatencyMs: latency,
			Details:   map[string]any{"remediation": "Run: server migrate up"},
		}
	}

	return CheckResult{
		Status:    "pass",
		Message:   fmt.Sprintf("Migrations applied successfully (version %d)", version),
		LatencyMs: latency,
		Details:   map[string]any{"version": version, "dirty": false},
	}
}

// Healthz is a liveness probe that never touches storage.
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondHealth(w, http.StatusOK, "ok")
	})
}

type healthResponse struct {
	Status string `json:"status"`
}

func respondHealth(w http.ResponseWriter, status int, value string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(healthResponse{Status: value})
}
