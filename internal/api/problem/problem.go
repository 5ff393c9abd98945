package problem

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/problem+json"

const typeBase = "https://kampuskuevent.dev/problems/"

// Problem type URIs.
const (
	TypeValidation       = typeBase + "validation-error"
	TypeMalformedBody    = typeBase + "malformed-body"
	TypeNotFound         = typeBase + "not-found"
	TypeUnauthorized     = typeBase + "unauthorized"
	TypeCapacityExceeded = typeBase + "capacity-exceeded"
	TypePayloadTooLarge  = typeBase + "payload-too-large"
	TypeRateLimited      = typeBase + "rate-limited"
	TypeMethodNotAllowed = typeBase + "method-not-allowed"
	TypeServerError      = typeBase + "server-error"
)

type ProblemDetails struct {
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Status   int            `json:"status"`
	Detail   string         `json:"detail,omitempty"`
	Instance string         `json:"instance,omitempty"`
	Errors   map[string]any `json:"errors,omitempty"`
}

type Option func(*ProblemDetails)

// WithDetail sets a client-facing detail that is never sanitized.
func WithDetail(detail string) Option {
	return func(p *ProblemDetails) {
		p.Detail = detail
	}
}

func WithInstance(instance string) Option {
	return func(p *ProblemDetails) {
		p.Instance = instance
	}
}

// WithFieldErrors attaches per-field validation messages.
func WithFieldErrors(fields map[string]string) Option {
	return func(p *ProblemDetails) {
		if len(fields) == 0 {
			return
		}
		p.Errors = make(map[string]any, len(fields))
		for k, v := range fields {
			p.Errors[k] = v
		}
	}
}

// Write renders an RFC 7807 response. Without WithDetail, err's text is
// exposed only in development and test environments.
func Write(w http.ResponseWriter, r *http.Request, status int, typ, title string, err error, env string, opts ...Option) {
	problem := ProblemDetails{
		Type:   typ,
		Title:  title,
		Status: status,
	}

	for _, opt := range opts {
		opt(&problem)
	}

	if problem.Detail == "" && err != nil {
		if env == "development" || env == "test" {
			problem.Detail = err.Error()
		} else {
			problem.Detail = http.StatusText(status)
		}
	}

	if problem.Instance == "" && r != nil {
		problem.Instance = r.URL.Path
	}

	if err != nil && r != nil {
		logger := zerolog.Ctx(r.Context())
		var event *zerolog.Event
		if status >= 500 {
			event = logger.Error()
		} else {
			event = logger.Warn()
		}
		event.
			Err(err).
			Int("status", status).
			Str("type", typ).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(title)
	}

	WriteProblem(w, problem)
}

func WriteProblem(w http.ResponseWriter, problem ProblemDetails) {
	payload, err := json.Marshal(problem)
	if err != nil {
		fallback := fmt.Sprintf("{\"type\":\"about:blank\",\"title\":\"%s\",\"status\":500}", http.StatusText(http.StatusInternalServerError))
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(fallback))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(problem.Status)
	_, _ = w.Write(payload)
}
