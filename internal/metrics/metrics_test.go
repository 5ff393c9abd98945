package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInit(t *testing.T) {
	Init("v1.0.0", "abc123", "2026-01-30", "sqlite")
	// second call must not panic on duplicate collector registration
	Init("v1.0.1", "def456", "2026-02-01", "postgres")

	if got := testutil.CollectAndCount(AppInfo); got != 1 {
		t.Errorf("AppInfo should hold exactly one series, got %d", got)
	}
	if got := testutil.ToFloat64(AppInfo.WithLabelValues("v1.0.1", "def456", "2026-02-01", "postgres")); got != 1 {
		t.Errorf("AppInfo value = %v, want 1", got)
	}
}

func TestRecordRegistration(t *testing.T) {
	before := testutil.ToFloat64(RegistrationsTotal.WithLabelValues(OutcomeQuotaFull))
	RecordRegistration(OutcomeQuotaFull)
	RecordRegistration(OutcomeQuotaFull)

	after := testutil.ToFloat64(RegistrationsTotal.WithLabelValues(OutcomeQuotaFull))
	if after-before != 2 {
		t.Errorf("expected quota_full to increase by 2, got %v", after-before)
	}
}

func TestHTTPMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	wrapped := HTTPMiddleware(handler)
	req := httptest.NewRequest("GET", "/events/12", nil)
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/events/{id}", "200")); got < 1 {
		t.Errorf("expected request to be counted under /events/{id}, got %v", got)
	}
}

func TestHTTPMiddlewareUsesMuxPattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events/{id}/participants", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	HTTPMiddleware(mux).ServeHTTP(rec, httptest.NewRequest("GET", "/events/abc/participants", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}
	if got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/events/{id}/participants", "404")); got < 1 {
		t.Errorf("expected pattern label, got %v", got)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/events", "/events"},
		{"/events/42", "/events/{id}"},
		{"/events/42/participants", "/events/{id}/participants"},
		{"/participants/7", "/participants/{id}"},
		{"", ""},
		{"events/42", "events/42"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.input); got != tt.expected {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

type fakePool struct{ stats PoolStats }

func (f fakePool) PoolStats() PoolStats { return f.stats }

func TestDBCollector(t *testing.T) {
	collector := NewDBCollector(fakePool{stats: PoolStats{Open: 3, InUse: 1, Idle: 2, MaxOpen: 10}})
	collector.collect()

	if got := testutil.ToFloat64(DBConnectionsOpen); got != 3 {
		t.Errorf("db_connections_open = %v, want 3", got)
	}
	if got := testutil.ToFloat64(DBConnectionsMaxOpen); got != 10 {
		t.Errorf("db_connections_max_open = %v, want 10", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		collector.Start(ctx, time.Hour)
		close(done)
	}()
	collector.Stop()
	collector.Stop()
	cancel()
	<-done
}

func TestDBCollectorNilSource(t *testing.T) {
	collector := NewDBCollector(nil)
	collector.collect()
	collector.Stop()
}

func TestRecordQuery(t *testing.T) {
	RecordQuery("test_select", time.Now(), nil)
	if testutil.CollectAndCount(DBQueryDuration) == 0 {
		t.Error("DBQueryDuration should have recorded at least one query")
	}

	RecordQuery("test_failed", time.Now(), context.Canceled)
	if got := testutil.ToFloat64(DBErrors.WithLabelValues("test_failed", "canceled")); got != 1 {
		t.Errorf("expected one canceled error, got %v", got)
	}
}

func TestResponseWriterDefaults(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec}

	content := []byte("Hello, World!")
	_, _ = rw.Write(content)

	if rw.statusCode != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", rw.statusCode)
	}
	if rw.bytesWritten != len(content) {
		t.Errorf("Expected %d bytes written, got %d", len(content), rw.bytesWritten)
	}
}
