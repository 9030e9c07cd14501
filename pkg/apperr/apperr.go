package apperr

import (
	"errors"
	"fmt"
)

// Kind groups domain errors so the HTTP boundary can pick a status
// without inspecting individual codes.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidPayload
	KindInvalidState
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindUnsupportedMedia
	KindPayloadTooLarge
	KindMimeMismatch
)

// Error carries a stable machine-readable code alongside the human
// message. The boundary returns both verbatim and never rewords them.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a domain error.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Newf builds a domain error with a formatted message.
func Newf(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches an underlying cause to a domain error.
func Wrap(kind Kind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, cause: cause}
}

// KindOf extracts the Kind from err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf extracts the machine code from err, or "internal_error".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "internal_error"
}
