package handler

// RESPONSE HELPERS:
// Every error response has the same shape:
//   {"error": "not_found", "message": "snippet not found with id abc123"}
//
// writeError is the only place a domain error becomes an HTTP status.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/codecraft/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string            `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string            `json:"message"` // Human-readable description
	Fields  map[string]string `json:"fields,omitempty"`
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be set before the body is written.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps an error chain to a status code and machine-readable type.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrSubscriptionRequired):
		return http.StatusPaymentRequired, "subscription_required"
	case errors.Is(err, apperror.ErrVerification):
		return http.StatusBadRequest, "verification_failed"
	case errors.Is(err, apperror.ErrUpstream):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// errors.Is walks the whole chain, so a service error like
//
//	fmt.Errorf("service/snippet: deleting: %w", apperror.Forbidden(...))
//
// still maps to 403.
func writeError(w http.ResponseWriter, err error) {
	status, errorType := statusFor(err)

	var appErr *apperror.AppError
	if status == http.StatusInternalServerError || !errors.As(err, &appErr) {
		// Raw messages may carry SQL or file paths; never send them.
		slog.Error("unhandled error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	resp := ErrorResponse{Error: errorType, Message: appErr.Message}
	if appErr.Field != "" {
		resp.Fields = map[string]string{appErr.Field: appErr.Message}
	}
	writeJSON(w, status, resp)
}
