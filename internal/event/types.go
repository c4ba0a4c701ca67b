package event

import "github.com/tripagent/tripagent/pkg/types"

// EventType represents the type of event.
type EventType string

const (
	SessionReplaced EventType = "session.replaced"
	MessageAdded    EventType = "message.added"
	ThinkingUpdated EventType = "thinking.updated"
	ToolProgressed  EventType = "tool.progressed"
	ResultUpdated   EventType = "result.updated"
	TurnStarted     EventType = "turn.started"
	TurnFinished    EventType = "turn.finished"
)

// Event represents an event to be published.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// SessionReplacedData accompanies SessionReplaced.
type SessionReplacedData struct {
	Session types.Session `json:"session"`
}

// MessageAddedData accompanies MessageAdded.
type MessageAddedData struct {
	Message types.Message `json:"message"`
}

// ThinkingUpdatedData accompanies ThinkingUpdated.
type ThinkingUpdatedData struct {
	Message string `json:"message"`
}

// ToolProgressedData accompanies ToolProgressed.
type ToolProgressedData struct {
	Tool types.ToolProgress `json:"tool"`
}

// ResultUpdatedData accompanies ResultUpdated. Result is nil when the
// current result was cleared.
type ResultUpdatedData struct {
	Result *types.NormalizedResult `json:"result,omitempty"`
}

// TurnStartedData accompanies TurnStarted.
type TurnStartedData struct {
	UserMessageID string `json:"userMessageID"`
}

// TurnFinishedData accompanies TurnFinished.
type TurnFinishedData struct {
	Failed bool `json:"failed"`
}
