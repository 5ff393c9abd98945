package handlers

import (
	"net/http"

	"github.com/kampuskuevent/server/internal/domain/events"
)

type EventsHandler struct {
	Service *events.Service
	Env     string
}

func NewEventsHandler(service *events.Service, env string) *EventsHandler {
	return &EventsHandler{Service: service, Env: env}
}

type eventResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	Quota       int    `json:"quota"`
	Description string `json:"description"`
}

func toEventResponse(e events.Event) eventResponse {
	return eventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Date:        e.Date,
		Location:    e.Location,
		Quota:       e.Quota,
		Description: e.Description,
	}
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	items := make([]eventResponse, 0, len(list))
	for _, e := range list {
		items = append(items, toEventResponse(e))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	event, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(*event))
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input events.Input
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.Env)
		return
	}

	event, err := h.Service.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, toEventResponse(*event))
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	var input events.Input
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.Env)
		return
	}

	event, err := h.Service.Update(r.Context(), id, input)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(*event))
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
