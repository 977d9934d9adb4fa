// Package common defines the error kinds and small helpers shared by the
// Lostify server layers. Callers match kinds with errors.Is.
package common

import "errors"

var (
	// repository specific errors
	ErrorNotFound = errors.New("not found")

	// service specific errors
	ErrorInternal         = errors.New("internal error")
	ErrorBadRequest       = errors.New("bad request")
	ErrorUnauthorized     = errors.New("unauthorized")
	ErrorForbidden        = errors.New("forbidden")
	ErrorConflict         = errors.New("conflict")
	ErrorTooManyRequests  = errors.New("too many requests")
	ErrorPayloadTooLarge  = errors.New("payload too large")
	ErrorDeliveryFailed   = errors.New("message delivery failed")
	ErrorDeliveryTimedOut = errors.New("message delivery timed out")

	// session errors
	ErrInvalidToken = errors.New("invalid token")
)

// Error attaches a client-facing message to one of the kinds above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

// NewError returns an *Error of the given kind.
func NewError(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Message extracts the client-facing message of err, falling back to its text.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}
