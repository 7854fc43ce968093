package weather

import (
	"errors"
	"fmt"
)

// ErrorKind classifies resolution and fetch failures for conditional UI.
type ErrorKind int

const (
	// KindNotFound: the place or coordinates could not be resolved by the
	// provider. User-correctable.
	KindNotFound ErrorKind = iota + 1
	// KindPermissionDenied: the device location capability was refused.
	KindPermissionDenied
	// KindUnavailable: a capability is absent or the provider's data is
	// temporarily missing.
	KindUnavailable
	// KindTimedOut: a deadline elapsed before any outcome.
	KindTimedOut
	// KindNetwork: transport-level or provider failure, retryable by the user.
	KindNetwork
	// KindMalformedPayload: the provider answered with a body that does not
	// match the expected shape.
	KindMalformedPayload
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindUnavailable:
		return "unavailable"
	case KindTimedOut:
		return "timed_out"
	case KindNetwork:
		return "network_error"
	case KindMalformedPayload:
		return "malformed_payload"
	default:
		return "unknown"
	}
}

// Error carries a structured kind plus a single human-readable message.
type Error struct {
	Kind    ErrorKind
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

// NewError builds a classified error without a cause.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError builds a classified error around a cause.
func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the classification from err, or zero when err carries none.
func KindOf(err error) ErrorKind {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	return 0
}

// AsError coerces err into a classified *Error, wrapping unclassified errors
// with the given default kind and message.
func AsError(err error, kind ErrorKind, message string) *Error {
	var we *Error
	if errors.As(err, &we) {
		return we
	}
	return WrapError(kind, message, err)
}
