package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(
		trace.WithSyncer(exporter),
		trace.WithSampler(trace.AlwaysSample()),
	)
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(previous)
	})
	return exporter
}

func TestTracing(t *testing.T) {
	exporter := installRecorder(t)

	handler := Tracing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	span := spans[0]
	if span.Name != "GET /events" {
		t.Errorf("expected span name %q, got %q", "GET /events", span.Name)
	}

	foundMethod := false
	foundStatusCode := false
	for _, attr := range span.Attributes {
		switch attr.Key {
		case "http.method":
			foundMethod = true
			if attr.Value.AsString() != "GET" {
				t.Errorf("expected http.method=GET, got %s", attr.Value.AsString())
			}
		case "http.status_code":
			foundStatusCode = true
			if attr.Value.AsInt64() != 200 {
				t.Errorf("expected http.status_code=200, got %d", attr.Value.AsInt64())
			}
		}
	}
	if !foundMethod {
		t.Error("http.method attribute not found")
	}
	if !foundStatusCode {
		t.Error("http.status_code attribute not found")
	}
}

func TestTracingStatusByClass(t *testing.T) {
	cases := []struct {
		status int
		want   codes.Code
	}{
		{http.StatusNotFound, codes.Ok},
		{http.StatusBadRequest, codes.Ok},
		{http.StatusInternalServerError, codes.Error},
	}

	for _, tc := range cases {
		exporter := installRecorder(t)

		handler := Tracing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/participants", nil))

		spans := exporter.GetSpans()
		if len(spans) != 1 {
			t.Fatalf("status %d: expected 1 span, got %d", tc.status, len(spans))
		}
		if spans[0].Status.Code != tc.want {
			t.Errorf("status %d: expected span status %v, got %v", tc.status, tc.want, spans[0].Status.Code)
		}
	}
}

func TestTracingRecordsRequestID(t *testing.T) {
	exporter := installRecorder(t)

	handler := Tracing(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req = req.WithContext(context.WithValue(req.Context(), RequestIDKey, "req-42"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	for _, attr := range spans[0].Attributes {
		if attr.Key == "request_id" && attr.Value.AsString() == "req-42" {
			return
		}
	}
	t.Error("request_id attribute not found")
}

func TestTracingResponseWriterKeepsFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	tw := &tracingResponseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	tw.WriteHeader(http.StatusCreated)
	tw.WriteHeader(http.StatusInternalServerError)

	if tw.statusCode != http.StatusCreated {
		t.Errorf("expected statusCode=201, got %d", tw.statusCode)
	}
}
