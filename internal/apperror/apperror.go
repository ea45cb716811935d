// Package apperror defines the domain error taxonomy shared by every layer.
//
// Each constructor returns an *AppError that wraps one sentinel, so callers can
// branch with errors.Is and still show the human-readable Message. The HTTP
// layer (handler.writeError) is the only place sentinels become status codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation error")
	ErrConflict             = errors.New("conflict")
	ErrForbidden            = errors.New("forbidden")
	ErrUnauthenticated      = errors.New("not authenticated")
	ErrSubscriptionRequired = errors.New("subscription required")
	ErrVerification         = errors.New("verification failed")
	ErrUpstream             = errors.New("upstream failure")
)

type AppError struct {
	Err     error  // sentinel
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthenticated is returned when an operation needs a verified caller
// identity and none was supplied.
func Unauthenticated() *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: "not authenticated",
	}
}

// SubscriptionRequired is the tier-gate failure for a non-free language.
func SubscriptionRequired(language string) *AppError {
	return &AppError{
		Err:     ErrSubscriptionRequired,
		Message: fmt.Sprintf("a pro subscription is required to run %s code", language),
		Field:   "language",
	}
}

// VerificationFailed marks an inbound message whose authenticity could not be
// established (missing or bad signature headers).
func VerificationFailed(message string) *AppError {
	return &AppError{
		Err:     ErrVerification,
		Message: message,
	}
}

// Upstream wraps a failure from a collaborator we do not control, such as the
// code-execution API. The cause is folded into Message; Err is always
// ErrUpstream.
func Upstream(service string, cause error) *AppError {
	msg := fmt.Sprintf("%s is unavailable", service)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &AppError{
		Err:     ErrUpstream,
		Message: msg,
	}
}
