package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"ticket-desk/core/tickets"
	"ticket-desk/core/utils"
)

const maxPayloadBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

// decodeJSON rejects unknown fields, trailing data and oversized bodies.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected trailing data")
	}
	return nil
}

// writeServiceError maps engine errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, logger *utils.Logger, err error) {
	if tickets.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "tickets.not_found", err.Error())
		return
	}
	if verr, ok := tickets.AsValidation(err); ok {
		writeError(w, http.StatusBadRequest, "tickets.invalid", verr.Error())
		return
	}
	if ferr, ok := tickets.AsForbidden(err); ok {
		writeError(w, http.StatusForbidden, "tickets.forbidden", ferr.Error())
		return
	}
	if logger != nil {
		logger.Errorf("tickets: unexpected error: %v", err)
	}
	writeError(w, http.StatusInternalServerError, "server.error", "internal server error")
}
