package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/goalboard/internal/ctxkeys"
	"github.com/templui/goalboard/internal/service"
	"github.com/templui/goalboard/internal/validation"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err, "path", r.URL.Path)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

// writeError maps service errors to status codes. Unexpected errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fields validation.Errors

	switch {
	case errors.As(err, &fields):
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "invalid goal", Fields: fields})
	case errors.Is(err, service.ErrGoalNotFound):
		writeJSON(w, r, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrGoalCompleted), errors.Is(err, service.ErrPinInvariant):
		writeJSON(w, r, http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrStorageUnavailable):
		writeJSON(w, r, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	default:
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", ctxkeys.RequestID(r.Context()),
		)
		writeJSON(w, r, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
