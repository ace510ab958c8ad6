package core

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state transition")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden operation")
	ErrPersistence  = errors.New("persistence failure")
)

// Error is a classified domain error. Its message is safe to return to clients;
// the wrapped cause, if any, is only meant for logs.
type Error struct {
	kind  error
	msg   string
	cause error
}

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Persistence wraps a repository failure under ErrPersistence with a client-safe message.
func Persistence(msg string, cause error) *Error {
	return &Error{kind: ErrPersistence, msg: msg, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

// Message returns the text without the underlying cause.
func (e *Error) Message() string { return e.msg }

// Kind returns the sentinel this error is classified under.
func (e *Error) Kind() error { return e.kind }

func (e *Error) Is(target error) bool {
	return target == e.kind || errors.Is(e.kind, target)
}

func (e *Error) Unwrap() error { return e.cause }

// MessageOf extracts the client-facing message from err.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message()
	}
	if errors.Is(err, ErrUnauthorized) {
		return "Unauthorized"
	}
	return "An unexpected error occurred"
}
