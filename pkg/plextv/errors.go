package plextv

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed protocol call.
type ErrorKind int

const (
	// KindUnknown is reported for errors that did not originate in this package.
	KindUnknown ErrorKind = iota

	// KindNetwork is a transport-level failure: DNS, connect, timeout.
	KindNetwork

	// KindServer is a non-2xx HTTP status.
	KindServer

	// KindParse is a malformed or unexpected response body.
	KindParse

	// KindUnauthenticated is a missing or rejected token.
	KindUnauthenticated

	// KindTimeout means the polling budget ran out without a token.
	KindTimeout
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network_error"
	case KindServer:
		return "server_error"
	case KindParse:
		return "parse_error"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindTimeout:
		return "auth_timeout"
	default:
		return "unknown"
	}
}

// Error is returned by every Client operation.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Op names the operation that failed, e.g. "generate pin".
	Op string

	// StatusCode is the HTTP status for KindServer and KindUnauthenticated
	// failures that came from a response. Zero otherwise.
	StatusCode int

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewTimeoutError reports that attempts polls of a PIN produced no token.
func NewTimeoutError(attempts int) *Error {
	return &Error{
		Kind: KindTimeout,
		Op:   "poll pin",
		Err:  fmt.Errorf("no token after %d attempts", attempts),
	}
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// IsTransient reports whether a failed call is worth repeating unchanged.
// Network and server failures are transient; parse and auth failures are not.
func IsTransient(err error) bool {
	switch KindOf(err) {
	case KindNetwork, KindServer:
		return true
	default:
		return false
	}
}
