package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/kampuskuevent/server/internal/api/problem"
	"github.com/kampuskuevent/server/internal/domain/events"
	"github.com/kampuskuevent/server/internal/domain/participants"
	"github.com/kampuskuevent/server/internal/validation"
)

var errEmptyBody = errors.New("request body is empty")

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON reads exactly one JSON value from the request body.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("request body must contain a single JSON value")
	}
	return nil
}

// pathID parses a numeric path parameter. Non-numeric values are a
// validation failure; non-positive values are left to the service, which
// treats them as absent.
func pathID(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(key))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, validation.NewError(key, "must be an integer")
	}
	return id, nil
}

// writeDecodeError maps body decoding failures. Type mismatches are reported
// per field like validation failures; anything else is a malformed body.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypePayloadTooLarge, "Payload too large", err, env,
			problem.WithDetail("Request body exceeds the size limit"))
		return
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		verr := validation.NewError(typeErr.Field, "must be a "+jsonTypeName(typeErr.Type.Kind().String()))
		writeError(w, r, verr, env)
		return
	}

	problem.Write(w, r, http.StatusBadRequest, problem.TypeMalformedBody, "Malformed request body", err, env,
		problem.WithDetail("Request body must be a valid JSON object"))
}

func jsonTypeName(kind string) string {
	switch {
	case strings.HasPrefix(kind, "int"), strings.HasPrefix(kind, "uint"), strings.HasPrefix(kind, "float"):
		return "number"
	case kind == "bool":
		return "boolean"
	case kind == "string":
		return "string"
	default:
		return "valid value"
	}
}

// writeError maps domain and validation errors to problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		problem.Write(w, r, http.StatusUnprocessableEntity, problem.TypeValidation, "Invalid request", err, env,
			problem.WithDetail(verr.Error()), problem.WithFieldErrors(verr.Fields))
	case errors.Is(err, events.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, env,
			problem.WithDetail("Event not found"))
	case errors.Is(err, participants.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, env,
			problem.WithDetail("Participant not found"))
	case errors.Is(err, participants.ErrCapacityExceeded):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeCapacityExceeded, "Capacity exceeded", err, env,
			problem.WithDetail("Event quota full"))
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, env)
	}
}
