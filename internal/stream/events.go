package stream

import (
	"encoding/json"
	"fmt"

	"github.com/tripagent/tripagent/pkg/types"
)

// Event is the closed set of protocol events one turn can observe. The
// Unknown arm makes unrecognized event types a guaranteed no-op instead of
// a runtime dispatch failure.
type Event interface {
	event()
}

// StatusEvent updates the turn's thinking/status message.
type StatusEvent struct {
	Message string
}

func (StatusEvent) event() {}

// ToolStartEvent announces a specialist invocation.
type ToolStartEvent struct {
	ToolID      string
	Name        string
	Description string
}

func (ToolStartEvent) event() {}

// ToolCompleteEvent reports a specialist outcome.
type ToolCompleteEvent struct {
	ToolID  string
	Status  types.ToolStatus // ToolCompleted or ToolFailed
	Preview string
	Error   string
}

func (ToolCompleteEvent) event() {}

// FinalResponseEvent carries the terminal payload of a successful turn.
type FinalResponseEvent struct {
	Payload types.FinalResponsePayload
}

func (FinalResponseEvent) event() {}

// ErrorEvent is a service-reported turn failure. Its message is surfaced
// verbatim to the user.
type ErrorEvent struct {
	Message string
}

func (ErrorEvent) event() {}

// UnknownEvent is any event type this client does not recognize.
type UnknownEvent struct {
	Type string
}

func (UnknownEvent) event() {}

// ParseEvent maps a decoded envelope onto the Event sum type. A payload
// that does not unmarshal for its declared type is reported as an error so
// the caller can skip the frame without aborting the stream.
func ParseEvent(env *types.Envelope) (Event, error) {
	switch env.Type {
	case types.EventStatus:
		var p types.StatusPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("status payload: %w", err)
		}
		return StatusEvent{Message: p.Message}, nil

	case types.EventToolStart:
		var p types.ToolStartPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("tool_start payload: %w", err)
		}
		if p.ToolID == "" {
			return nil, fmt.Errorf("tool_start payload: missing tool_id")
		}
		return ToolStartEvent{ToolID: p.ToolID, Name: p.ToolName, Description: p.Description}, nil

	case types.EventToolComplete:
		var p types.ToolCompletePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("tool_complete payload: %w", err)
		}
		if p.ToolID == "" {
			return nil, fmt.Errorf("tool_complete payload: missing tool_id")
		}
		status := types.ToolCompleted
		if p.Status == "failed" || p.Error != "" {
			status = types.ToolFailed
		}
		return ToolCompleteEvent{ToolID: p.ToolID, Status: status, Preview: p.ResultPreview, Error: p.Error}, nil

	case types.EventFinalResponse:
		var p types.FinalResponsePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("final_response payload: %w", err)
		}
		return FinalResponseEvent{Payload: p}, nil

	case types.EventError:
		var p types.ErrorPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("error payload: %w", err)
		}
		return ErrorEvent{Message: p.Message}, nil

	default:
		return UnknownEvent{Type: string(env.Type)}, nil
	}
}
