package handler

// Every error response from the JSON API has the same shape:
//
//	{"error": "not_found", "message": "todo not found with id abc123"}
//
// The one exception is POST /api/generate-image, which keeps its
// {"error", "details"} shape for the generate form.

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/creo-studio/internal/apperror"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// NotConfiguredMessage is shown when JWT_SECRET is missing.
const NotConfiguredMessage = "Authentication is not configured. Please check your environment variables."

// ErrorResponse is the standard error format returned by API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// MessageResponse is a bare user-visible message.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// decodeJSON reads exactly one JSON object from the request body. A body
// that is empty, not an object (e.g. null) or followed by more data is
// rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)

	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	if raw = bytes.TrimSpace(raw); len(raw) == 0 || raw[0] != '{' {
		return fmt.Errorf("request body must be a JSON object")
	}
	return json.Unmarshal(raw, dst)
}

// classify maps a domain error to an HTTP status and machine-readable type.
// ok is false for errors that carry no AppError.
func classify(err error) (status int, errorType, message string, ok bool) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, "internal_error", "An internal error occurred", false
	}

	status, errorType = http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status, errorType = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrNotFound):
		status, errorType = http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrForbidden):
		status, errorType = http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrConflict):
		status, errorType = http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrUnauthorized):
		status, errorType = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrUnavailable):
		status, errorType = http.StatusServiceUnavailable, "not_configured"
	case errors.Is(err, apperror.ErrUpstream):
		status, errorType = http.StatusBadGateway, "upstream_error"
	}
	return status, errorType, appErr.Message, true
}

// writeError maps a domain error to the appropriate HTTP status code and sends
// it. Unknown errors become a generic 500 without internal details.
func writeError(w http.ResponseWriter, err error) {
	writeErrorPrefixed(w, err, "")
}

// writeErrorPrefixed is writeError with a user-facing prefix on the message,
// e.g. "Sign up failed: " + "User already registered".
func writeErrorPrefixed(w http.ResponseWriter, err error, prefix string) {
	status, errorType, message, _ := classify(err)
	writeJSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: prefix + message,
	})
}

// NotConfigured answers every request with 503. The server mounts it on auth
// and protected routes when no JWT secret is configured.
func NotConfigured(w http.ResponseWriter, r *http.Request) {
	writeError(w, apperror.Unavailable(NotConfiguredMessage))
}

// logFailure logs server-side failures; client errors are not worth a line.
func logFailure(logger *slog.Logger, msg string, err error) {
	if _, _, _, ok := classify(err); ok {
		return
	}
	logger.Error(msg, slog.String("error", err.Error()))
}
