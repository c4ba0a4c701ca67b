// Package turn drives one request/stream cycle against AgentCore: the
// protocol state machine that folds stream events into turn state, and the
// controller that wraps the cycle with validation, retries, and a timeout
// ceiling.
package turn

import (
	"errors"
	"fmt"

	"github.com/tripagent/tripagent/internal/transport"
)

// ValidationError is a precondition failure detected before any network
// call. It is never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// ProtocolError is an explicit error event from the service. The message is
// surfaced verbatim to the user and the turn is not retried.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return e.Message
}

// TransportError is a transient request or stream failure: connection
// errors, timeouts, 5xx responses, or a stream that ended before its
// terminal event. Transport errors are retried with backoff.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Retryable reports whether err should be retried: transport failures yes,
// 4xx client errors, validation errors and protocol errors no.
func Retryable(err error) bool {
	var ve *ValidationError
	var pe *ProtocolError
	if errors.As(err, &ve) || errors.As(err, &pe) {
		return false
	}
	var se *transport.StatusError
	if errors.As(err, &se) {
		return !se.ClientError()
	}
	return true
}
