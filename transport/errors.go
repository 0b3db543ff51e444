package transport

import (
	"errors"
	"fmt"
)

// Error kinds; match with errors.Is.
var (
	// ErrConfiguration is returned before any I/O when the client is misconfigured,
	// e.g. plain http to a non-loopback host.
	ErrConfiguration = errors.New("configuration error")
	// ErrProtocol reports a malformed or unexpected backend reply.
	ErrProtocol = errors.New("protocol error")
	// ErrTransport reports a network failure or a non-success HTTP status.
	ErrTransport = errors.New("transport error")
	// ErrAuth reports a rejected, malformed or expired credential.
	ErrAuth = errors.New("auth error")
	// ErrTool reports a tool result flagged with isError.
	ErrTool = errors.New("tool error")
)

// Error is the typed failure carried by Result.Err
type Error struct {
	Kind    error
	Message string
	Status  int
	Cause   error
}

func (e *Error) Error() string {
	message := e.Message
	if e.Cause != nil {
		message += ": " + e.Cause.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%v: %s (status %d)", e.Kind, message, e.Status)
	}
	return fmt.Sprintf("%v: %s", e.Kind, message)
}

// Is reports kind equality, so errors.Is(err, ErrProtocol) works on wrapped values.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(format string, args ...interface{}) *Error {
	return newError(ErrConfiguration, fmt.Sprintf(format, args...), nil)
}

// NewProtocolError creates a protocol error
func NewProtocolError(message string, cause error) *Error {
	return newError(ErrProtocol, message, cause)
}

// NewTransportError creates a transport error with optional HTTP status
func NewTransportError(message string, status int, cause error) *Error {
	ret := newError(ErrTransport, message, cause)
	ret.Status = status
	return ret
}

// NewAuthError creates an auth error
func NewAuthError(message string, cause error) *Error {
	return newError(ErrAuth, message, cause)
}

// asError converts arbitrary errors into *Error keeping existing kinds.
func asError(err error) *Error {
	var ret *Error
	if errors.As(err, &ret) {
		return ret
	}
	return newError(ErrTransport, err.Error(), err)
}
