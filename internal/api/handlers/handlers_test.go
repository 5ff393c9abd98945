package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kampuskuevent/server/internal/api/problem"
	"github.com/kampuskuevent/server/internal/domain/events"
	"github.com/kampuskuevent/server/internal/domain/participants"
	"github.com/kampuskuevent/server/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubEventsRepo struct {
	events []events.Event
	err    error
}

func (s *stubEventsRepo) List(_ context.Context) ([]events.Event, error) {
	return s.events, s.err
}

func (s *stubEventsRepo) GetByID(_ context.Context, id int64) (*events.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, e := range s.events {
		if e.ID == id {
			found := e
			return &found, nil
		}
	}
	return nil, events.ErrNotFound
}

func (s *stubEventsRepo) Create(_ context.Context, p events.WriteParams) (*events.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	e := events.Event{ID: int64(len(s.events) + 1), Title: p.Title, Date: p.Date, Location: p.Location, Quota: p.Quota, Description: p.Description}
	s.events = append(s.events, e)
	return &e, nil
}

func (s *stubEventsRepo) Update(_ context.Context, id int64, p events.WriteParams) (*events.Event, error) {
	for i, e := range s.events {
		if e.ID == id {
			s.events[i] = events.Event{ID: id, Title: p.Title, Date: p.Date, Location: p.Location, Quota: p.Quota, Description: p.Description}
			return &s.events[i], nil
		}
	}
	return nil, events.ErrNotFound
}

func (s *stubEventsRepo) Delete(_ context.Context, id int64) error {
	for i, e := range s.events {
		if e.ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return nil
		}
	}
	return events.ErrNotFound
}

type stubParticipantsRepo struct {
	registerErr error
	list        []participants.Participant
}

func (s *stubParticipantsRepo) List(_ context.Context) ([]participants.Participant, error) {
	return s.list, nil
}

func (s *stubParticipantsRepo) ListByEvent(_ context.Context, eventID int64) ([]participants.Participant, error) {
	var out []participants.Participant
	for _, p := range s.list {
		if p.EventID == eventID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubParticipantsRepo) Register(_ context.Context, p participants.RegisterParams, _ participants.Admission) (*participants.Participant, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	created := participants.Participant{ID: int64(len(s.list) + 1), Name: p.Name, Email: p.Email, EventID: p.EventID}
	s.list = append(s.list, created)
	return &created, nil
}

func (s *stubParticipantsRepo) Delete(_ context.Context, id int64) error {
	return participants.ErrNotFound
}

func serve(method, pattern, target, body string, h http.HandlerFunc) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(method+" "+pattern, h)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestEventsHandlerListEmptyIsArray(t *testing.T) {
	h := NewEventsHandler(events.NewService(&stubEventsRepo{}, zerolog.Nop()), "test")

	rec := serve(http.MethodGet, "/events", "/events", "", h.List)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestEventsHandlerCreateResponseShape(t *testing.T) {
	h := NewEventsHandler(events.NewService(&stubEventsRepo{}, zerolog.Nop()), "test")

	rec := serve(http.MethodPost, "/events", "/events",
		`{"title":"Expo","date":"2025-05-05","location":"GOR","quota":0}`, h.Create)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"id":1,"title":"Expo","date":"2025-05-05","location":"GOR","quota":0,"description":""}`, rec.Body.String())
}

func TestEventsHandlerStorageFailureIsSanitized(t *testing.T) {
	h := NewEventsHandler(events.NewService(&stubEventsRepo{err: errors.New("disk I/O error")}, zerolog.Nop()), "production")

	rec := serve(http.MethodGet, "/events", "/events", "", h.List)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body problem.ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotContains(t, body.Detail, "disk")
}

func TestEventsHandlerDeleteUnknown(t *testing.T) {
	h := NewEventsHandler(events.NewService(&stubEventsRepo{}, zerolog.Nop()), "test")

	rec := serve(http.MethodDelete, "/events/{id}", "/events/5", "", h.Delete)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventsHandlerRejectsTrailingJSON(t *testing.T) {
	h := NewEventsHandler(events.NewService(&stubEventsRepo{}, zerolog.Nop()), "test")

	rec := serve(http.MethodPost, "/events", "/events",
		`{"title":"A","date":"2025-01-01","location":"B","quota":1}{"title":"C"}`, h.Create)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParticipantsHandlerRegisterRecordsOutcome(t *testing.T) {
	eventsRepo := &stubEventsRepo{events: []events.Event{{ID: 1, Title: "A", Date: "2025-01-01", Location: "B", Quota: 1}}}

	cases := []struct {
		name    string
		repoErr error
		body    string
		status  int
		outcome string
	}{
		{"admitted", nil, `{"name":"a","email":"a@b.co","event_id":1}`, http.StatusCreated, metrics.OutcomeAdmitted},
		{"quota full", participants.ErrCapacityExceeded, `{"name":"a","email":"a@b.co","event_id":1}`, http.StatusBadRequest, metrics.OutcomeQuotaFull},
		{"unknown event", events.ErrNotFound, `{"name":"a","email":"a@b.co","event_id":9}`, http.StatusNotFound, metrics.OutcomeEventNotFound},
		{"invalid", nil, `{"name":"","email":"a@b.co","event_id":1}`, http.StatusUnprocessableEntity, metrics.OutcomeInvalid},
		{"storage failure", errors.New("locked"), `{"name":"a","email":"a@b.co","event_id":1}`, http.StatusInternalServerError, metrics.OutcomeError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubParticipantsRepo{registerErr: tc.repoErr}
			h := NewParticipantsHandler(participants.NewService(repo, eventsRepo, zerolog.Nop()), "test")

			before := testutil.ToFloat64(metrics.RegistrationsTotal.WithLabelValues(tc.outcome))
			rec := serve(http.MethodPost, "/participants", "/participants", tc.body, h.Register)

			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			require.Equal(t, before+1, testutil.ToFloat64(metrics.RegistrationsTotal.WithLabelValues(tc.outcome)))
		})
	}
}

func TestParticipantsHandlerListByEvent(t *testing.T) {
	eventsRepo := &stubEventsRepo{events: []events.Event{{ID: 1}, {ID: 2}}}
	repo := &stubParticipantsRepo{list: []participants.Participant{
		{ID: 1, Name: "a", Email: "a@b.co", EventID: 1},
		{ID: 2, Name: "b", Email: "b@b.co", EventID: 2},
	}}
	h := NewParticipantsHandler(participants.NewService(repo, eventsRepo, zerolog.Nop()), "test")

	rec := serve(http.MethodGet, "/events/{id}/participants", "/events/2/participants", "", h.ListByEvent)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[{"id":2,"name":"b","email":"b@b.co","event_id":2}]`, rec.Body.String())

	rec = serve(http.MethodGet, "/events/{id}/participants", "/events/3/participants", "", h.ListByEvent)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(http.MethodGet, "/events/{id}/participants", "/events/x/participants", "", h.ListByEvent)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestParticipantsHandlerListEmptyIsArray(t *testing.T) {
	h := NewParticipantsHandler(participants.NewService(&stubParticipantsRepo{}, &stubEventsRepo{}, zerolog.Nop()), "test")

	rec := serve(http.MethodGet, "/participants", "/participants", "", h.List)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestWriteDecodeErrorTypeMismatch(t *testing.T) {
	var input events.Input
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`{"quota":"many"}`))
	err := decodeJSON(req, &input)
	require.Error(t, err)

	rec := httptest.NewRecorder()
	writeDecodeError(rec, req, err, "test")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body problem.ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "must be a number", body.Errors["quota"])
}

func TestWriteDecodeErrorOversizedBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(strings.Repeat(" ", 64)+`{}`))
	req.Body = http.MaxBytesReader(rec, req.Body, 16)

	var input events.Input
	err := decodeJSON(req, &input)
	require.Error(t, err)

	writeDecodeError(rec, req, err, "test")
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
