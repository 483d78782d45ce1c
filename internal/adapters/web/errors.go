package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"bom-engine/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps domain errors onto HTTP statuses. Anything not
// recognized falls through as a 500 so genuine failures stay loud.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrVersionConflict):
		writeError(w, r, err.Error(), "VERSION_CONFLICT", http.StatusConflict)
	case errors.Is(err, core.ErrReleased):
		writeError(w, r, err.Error(), "DOCUMENT_RELEASED", http.StatusConflict)
	case errors.Is(err, core.ErrInvalidTransition):
		writeError(w, r, err.Error(), "INVALID_TRANSITION", http.StatusConflict)
	case errors.Is(err, core.ErrCyclicReference):
		writeError(w, r, err.Error(), "CYCLIC_REFERENCE", http.StatusConflict)
	case errors.Is(err, core.ErrInvalidParent):
		writeError(w, r, err.Error(), "INVALID_PARENT", http.StatusBadRequest)
	case strings.Contains(err.Error(), "not found"):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	default:
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
