package httputil

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/LMSJTK/training-delivery/internal/pkg/logger"
)

// ErrorResponse is the standard error envelope for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}

// OK writes a 200 response with the given data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Error writes a JSON error response. Use for client errors (4xx).
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// BadRequest writes a 400 error.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// Forbidden writes a 403 error. Session lookups answer 403 for both
// "unknown" and "expired" so callers cannot probe which half of a tracking
// identifier was wrong.
func Forbidden(w http.ResponseWriter, message string) {
	Error(w, http.StatusForbidden, message)
}

// NotFound writes a 404 error.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

// InternalError writes a 500 error. The real error is logged server-side;
// the client sees detail only when debug is enabled.
func InternalError(w http.ResponseWriter, err error, debug bool) {
	logger.Error("internal error", "error", err)
	if debug {
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	Error(w, http.StatusInternalServerError, "internal server error")
}

// Decode reads a JSON body into dst. Tracker beacons arrive as text/plain
// (navigator.sendBeacon) and regular posts as application/json; both carry
// JSON, so decoding ignores the declared content type.
// Returns false and writes a 400 response if parsing fails.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		BadRequest(w, "unreadable body")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		BadRequest(w, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
