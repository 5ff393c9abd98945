package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/kampuskuevent/server/internal/api/handlers"
	"github.com/spf13/cobra"
)

// errUnhealthy marks a reachable server that reported a non-healthy status.
var errUnhealthy = errors.New("server unhealthy")

type healthcheckOptions struct {
	url     string
	timeout int
	format  string
}

// HealthCheckResult is the outcome of one probe against /health.
type HealthCheckResult struct {
	URL        string                `json:"url"`
	Status     string                `json:"status"`
	StatusCode int                   `json:"status_code,omitempty"`
	IsHealthy  bool                  `json:"healthy"`
	LatencyMs  int64                 `json:"latency_ms"`
	Error      string                `json:"error,omitempty"`
	Response   *handlers.HealthCheck `json:"response,omitempty"`
}

func newHealthcheckCommand() *cobra.Command {
	opts := &healthcheckOptions{}

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check if the server is healthy",
		Long: `Performs a health check by calling the /health endpoint.

This command is used by container health checks. It exits with code 0 if
the server is healthy and non-zero otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			url := opts.url
			if url == "" {
				url = defaultHealthURL()
			}

			result := performHealthCheck(cmd.Context(), url, time.Duration(opts.timeout)*time.Second)
			if err := writeHealthResult(cmd.OutOrStdout(), result, opts.format); err != nil {
				return err
			}
			if result.Error != "" {
				return fmt.Errorf("health check failed: %s", result.Error)
			}
			if !result.IsHealthy {
				return fmt.Errorf("%w: status=%s", errUnhealthy, result.Status)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.timeout, "timeout", 5, "timeout in seconds")
	cmd.Flags().StringVar(&opts.url, "url", "", "health check URL (default: http://localhost:{SERVER_PORT}/health)")
	cmd.Flags().StringVar(&opts.format, "format", "simple", "output format (simple, json)")

	return cmd
}

func defaultHealthURL() string {
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	return fmt.Sprintf("http://localhost:%s/health", port)
}

// performHealthCheck probes url once. Transport and decode failures land
// in Error; a 503 with a valid body is reported as unhealthy, not an error.
func performHealthCheck(ctx context.Context, url string, timeout time.Duration) HealthCheckResult {
	result := HealthCheckResult{URL: url, Status: "unknown"}

	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	result.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode

	var body handlers.HealthCheck
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		result.Error = fmt.Sprintf("invalid response: %v", err)
		return result
	}
	result.Response = &body
	result.Status = body.Status
	result.IsHealthy = resp.StatusCode == http.StatusOK && body.Status == "healthy"
	return result
}

func writeHealthResult(w io.Writer, result HealthCheckResult, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "simple", "":
		if result.Error != "" {
			_, err := fmt.Fprintf(w, "%s: error (%s)\n", result.URL, result.Error)
			return err
		}
		_, err := fmt.Fprintf(w, "%s: %s (HTTP %d, %dms)\n", result.URL, result.Status, result.StatusCode, result.LatencyMs)
		return err
	default:
		return fmt.Errorf("unknown format %q (expected simple or json)", format)
	}
}
