package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	appErrors "github.com/unclebandit/talentreach-backend/internal/errors"
	"github.com/unclebandit/talentreach-backend/internal/logger"
)

// StatusFor maps an application error onto an HTTP status code.
func StatusFor(err error) int {
	var (
		validation *appErrors.ValidationError
		upstream   *appErrors.UpstreamError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case appErrors.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, appErrors.ErrRunAlreadyActive),
		errors.Is(err, appErrors.ErrRunFinished),
		errors.Is(err, appErrors.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L.Warn("encoding response failed", "error", err)
	}
}

// WriteError writes {"error": ...} with the mapped status. Server-side
// failures are logged.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	WriteJSON(w, status, map[string]string{"error": err.Error()})
}

// DecodeJSON reads the request body into v.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return appErrors.NewValidationError("body", err.Error())
	}
	return nil
}
