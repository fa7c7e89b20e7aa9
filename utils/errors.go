package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindValidation        ErrorKind = "ValidationError"
	KindUnauthenticated   ErrorKind = "Unauthenticated"
	KindInvalidCredential ErrorKind = "InvalidCredential"
	KindForbidden         ErrorKind = "Forbidden"
	KindNotFound          ErrorKind = "NotFound"
	KindInvalidTransition ErrorKind = "InvalidTransition"
	KindInternal          ErrorKind = "InternalError"
)

func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation, KindInvalidTransition:
		return http.StatusBadRequest
	case KindUnauthenticated, KindInvalidCredential:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the error type every service returns to the HTTP layer.
type AppError struct {
	Kind      ErrorKind
	Message   string
	Err       error
	Retryable bool
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func newAppError(kind ErrorKind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NewValidationError(format string, args ...interface{}) *AppError {
	return newAppError(KindValidation, format, args...)
}

func NewUnauthenticated(format string, args ...interface{}) *AppError {
	return newAppError(KindUnauthenticated, format, args...)
}

func NewInvalidCredential(format string, args ...interface{}) *AppError {
	return newAppError(KindInvalidCredential, format, args...)
}

func NewForbidden(format string, args ...interface{}) *AppError {
	return newAppError(KindForbidden, format, args...)
}

func NewNotFound(format string, args ...interface{}) *AppError {
	return newAppError(KindNotFound, format, args...)
}

func NewInvalidTransition(format string, args ...interface{}) *AppError {
	return newAppError(KindInvalidTransition, format, args...)
}

// NewInternalError wraps an unexpected failure. Deadline and cancellation
// errors are marked retryable.
func NewInternalError(err error) *AppError {
	return &AppError{
		Kind:      KindInternal,
		Message:   "internal server error",
		Err:       err,
		Retryable: errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled),
	}
}

// AsAppError returns err as an *AppError, wrapping anything else as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(err)
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}
