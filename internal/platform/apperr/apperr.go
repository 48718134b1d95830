// Package apperr defines the error taxonomy shared by all domain services
// and the translation from error kind to HTTP status at the handler boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for boundary translation.
type Kind int

const (
	// KindValidation marks caller-fixable input errors.
	KindValidation Kind = iota + 1
	// KindNotFound marks a missing referenced entity.
	KindNotFound
	// KindConflict marks duplicate or already-finalized state.
	KindConflict
	// KindAuth marks missing, malformed, expired, or invalid credentials.
	KindAuth
	// KindUnavailable marks a collaborator failure the caller may retry.
	KindUnavailable
)

// Error is a kinded error with a caller-visible message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a kinded error with a message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a kinded error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a kinded error preserving the cause for logs while keeping
// the message as the caller-visible text.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation is shorthand for Wrap(KindValidation, message, err).
func Validation(message string, err error) *Error { return Wrap(KindValidation, message, err) }

// NotFound is shorthand for Wrap(KindNotFound, message, err).
func NotFound(message string, err error) *Error { return Wrap(KindNotFound, message, err) }

// Conflict is shorthand for Wrap(KindConflict, message, err).
func Conflict(message string, err error) *Error { return Wrap(KindConflict, message, err) }

// Auth is shorthand for New(KindAuth, message). Auth failures never carry a
// cause worth logging.
func Auth(message string) *Error { return New(KindAuth, message) }

// Unavailable is shorthand for Wrap(KindUnavailable, message, err).
func Unavailable(message string, err error) *Error {
	return Wrap(KindUnavailable, message, err)
}

// KindOf returns the kind of err, or 0 when err carries no kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }

// HTTPStatus maps an error to the status code handlers should return.
// Unkinded errors map to 500.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindAuth:
		return http.StatusUnauthorized
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-visible message for err. Unkinded errors are
// masked to avoid leaking internals.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
