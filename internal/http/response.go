package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"supcal/internal/core"
	applog "supcal/internal/log"
	"supcal/internal/records"
	"supcal/internal/services"
)

// errBadRequest marks malformed input that never reached the services.
var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, records.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, records.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, services.ErrInvalidColor),
		core.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidAnchor):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError answers with the status of err. Internal errors are
// logged and hidden from the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logError(r, op, err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func logError(r *http.Request, op string, err error) {
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, op, nil)
}

func logChange(r *http.Request, op string, rec core.Record) {
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogRecordChanged(r.Context(), op, rec)
}
