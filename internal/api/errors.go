package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for matching a classified [*Error] with errors.Is.
var (
	ErrNetwork           = errors.New("network error")
	ErrServer            = errors.New("server error")
	ErrMalformedResponse = errors.New("malformed response")
)

// ErrUnsupportedFormat is returned by uploads whose file extension is not
// an accepted audio format.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Kind classifies a failed request.
type Kind int

const (
	// KindNetwork means the request could not be sent or the response
	// could not be read.
	KindNetwork Kind = iota + 1

	// KindServer means the service answered with a non-2xx status.
	KindServer

	// KindMalformed means the body did not have the expected shape.
	KindMalformed
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindMalformed:
		return "malformed_response"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a classified request failure.
type Error struct {
	// Kind is the failure classification.
	Kind Kind

	// Op names the request that failed, e.g. "result" or "upload".
	Op string

	// StatusCode is the HTTP status code. Zero for network failures.
	StatusCode int

	// Message is the human-readable reason. For server errors this is the
	// service's own {"error": ...} text when present.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Kind == KindServer:
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrServer:
		return e.Kind == KindServer
	case ErrMalformedResponse:
		return e.Kind == KindMalformed
	}
	return false
}
