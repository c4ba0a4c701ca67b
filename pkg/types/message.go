package types

// Role identifies the sender of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Message is one entry in the conversation log. Messages are immutable once
// appended; insertion order is display order.
type Message struct {
	ID      string      `json:"id"`
	Role    Role        `json:"role"`
	Content string      `json:"content"`
	Time    MessageTime `json:"time"`

	// Meta carries turn outcome details for agent messages.
	Meta *MessageMeta `json:"meta,omitempty"`
}

// MessageTime contains timestamps for a message.
type MessageTime struct {
	Created int64 `json:"created"`
}

// MessageMeta is attached to agent messages produced by a terminal event.
type MessageMeta struct {
	SessionID      string            `json:"sessionID,omitempty"`
	ResponseType   string            `json:"responseType,omitempty"`
	ResponseStatus string            `json:"responseStatus,omitempty"`
	IsError        bool              `json:"isError,omitempty"`
	Result         *NormalizedResult `json:"result,omitempty"`

	// Tools is the turn's tool-progress list as it stood when the turn
	// reached a terminal state.
	Tools []ToolProgress `json:"tools,omitempty"`
}

// ToolStatus is the lifecycle state of one backend specialist invocation.
// Transitions are monotonic: pending -> active -> completed | failed.
type ToolStatus string

const (
	ToolPending   ToolStatus = "pending"
	ToolActive    ToolStatus = "active"
	ToolCompleted ToolStatus = "completed"
	ToolFailed    ToolStatus = "failed"
)

// Terminal reports whether the status is a terminal one.
func (s ToolStatus) Terminal() bool {
	return s == ToolCompleted || s == ToolFailed
}

// ToolProgress is the lifecycle record for one specialist invocation within
// a turn. Entries are keyed by ToolID; later events for the same ID update
// the existing entry in place.
type ToolProgress struct {
	ToolID      string     `json:"toolID"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      ToolStatus `json:"status"`
	Preview     string     `json:"preview,omitempty"`
	Error       string     `json:"error,omitempty"`
}
