package websocket

import (
	"errors"
)

// State is a stage of the opening handshake on one connection.
type State int

const (
	StateAccepted State = iota
	StateReadingRequest
	StateParsedRequest
	StateKeyValidated
	StateResponseSent
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAccepted:
		return "accepted"
	case StateReadingRequest:
		return "reading_request"
	case StateParsedRequest:
		return "parsed_request"
	case StateKeyValidated:
		return "key_validated"
	case StateResponseSent:
		return "response_sent"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	ErrReadFailure      = errors.New("read upgrade request failed")
	ErrMalformedRequest = errors.New("no GET in request")
	ErrMissingKey       = errors.New("client had no key in upgrade request")
	ErrWriteFailure     = errors.New("write upgrade response failed")
)

// HandshakeError aborts the handshake of one connection. Kind is one of
// the Err* values above, Stage the stage that could not be completed and
// Request the raw request text read so far.
type HandshakeError struct {
	Kind    error
	Stage   State
	Request string
	Err     error
}

func (e *HandshakeError) Error() string {
	if e.Err == nil {
		return "websocket: " + e.Kind.Error()
	}
	return "websocket: " + e.Kind.Error() + ": " + e.Err.Error()
}

func (e *HandshakeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Reason names the failure kind of err for metrics and logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrReadFailure):
		return "read_failure"
	case errors.Is(err, ErrMalformedRequest):
		return "malformed_request"
	case errors.Is(err, ErrMissingKey):
		return "missing_key"
	case errors.Is(err, ErrWriteFailure):
		return "write_failure"
	default:
		return "other"
	}
}
