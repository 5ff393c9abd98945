package handlers

import (
	"errors"
	"net/http"

	"github.com/kampuskuevent/server/internal/domain/events"
	"github.com/kampuskuevent/server/internal/domain/participants"
	"github.com/kampuskuevent/server/internal/metrics"
	"github.com/kampuskuevent/server/internal/validation"
)

type ParticipantsHandler struct {
	Service *participants.Service
	Env     string
}

func NewParticipantsHandler(service *participants.Service, env string) *ParticipantsHandler {
	return &ParticipantsHandler{Service: service, Env: env}
}

type participantResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	EventID int64  `json:"event_id"`
}

func toParticipantResponse(p participants.Participant) participantResponse {
	return participantResponse{
		ID:      p.ID,
		Name:    p.Name,
		Email:   p.Email,
		EventID: p.EventID,
	}
}

func writeParticipants(w http.ResponseWriter, list []participants.Participant) {
	items := make([]participantResponse, 0, len(list))
	for _, p := range list {
		items = append(items, toParticipantResponse(p))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ParticipantsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeParticipants(w, list)
}

func (h *ParticipantsHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	list, err := h.Service.ListByEvent(r.Context(), eventID)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeParticipants(w, list)
}

func (h *ParticipantsHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input participants.Input
	if err := decodeJSON(r, &input); err != nil {
		metrics.RecordRegistration(metrics.OutcomeInvalid)
		writeDecodeError(w, r, err, h.Env)
		return
	}

	participant, err := h.Service.Register(r.Context(), input)
	if err != nil {
		metrics.RecordRegistration(registrationOutcome(err))
		writeError(w, r, err, h.Env)
		return
	}
	metrics.RecordRegistration(metrics.OutcomeAdmitted)
	writeJSON(w, http.StatusCreated, toParticipantResponse(*participant))
}

func (h *ParticipantsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func registrationOutcome(err error) string {
	switch {
	case errors.Is(err, participants.ErrCapacityExceeded):
		return metrics.OutcomeQuotaFull
	case errors.Is(err, events.ErrNotFound):
		return metrics.OutcomeEventNotFound
	case errors.Is(err, validation.ErrInvalid):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}
