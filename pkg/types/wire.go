package types

import "encoding/json"

// EventType is the discriminant on each stream envelope.
type EventType string

const (
	EventStatus        EventType = "status"
	EventToolStart     EventType = "tool_start"
	EventToolComplete  EventType = "tool_complete"
	EventFinalResponse EventType = "final_response"
	EventError         EventType = "error"
)

// Envelope is one decoded stream frame: {"type": ..., "data": ...}.
type Envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// StatusPayload carries a thinking/status update.
type StatusPayload struct {
	Message string `json:"message"`
}

// ToolStartPayload announces a specialist invocation.
type ToolStartPayload struct {
	ToolID      string `json:"tool_id"`
	ToolName    string `json:"tool_name,omitempty"`
	Description string `json:"description,omitempty"`
}

// ToolCompletePayload reports the outcome of a specialist invocation.
// Status is "completed" or "failed".
type ToolCompletePayload struct {
	ToolID        string `json:"tool_id"`
	Status        string `json:"status,omitempty"`
	ResultPreview string `json:"result_preview,omitempty"`
	Error         string `json:"error,omitempty"`
}

// ErrorPayload carries a service-reported turn failure.
type ErrorPayload struct {
	Message string `json:"message"`
}

// SessionMetadata is the session block on a final response.
type SessionMetadata struct {
	SessionID string `json:"session_id"`
}

// FinalResponsePayload is the terminal event's payload. The same field set
// is returned as a single JSON document by the non-streaming endpoint.
// ResponseType selects which result collection is meaningful; collections
// for other types are ignored even if present.
type FinalResponsePayload struct {
	Message        string `json:"message"`
	ResponseType   string `json:"response_type,omitempty"`
	ResponseStatus string `json:"response_status,omitempty"`

	FlightResults        []FlightOffer   `json:"flight_results,omitempty"`
	AccommodationResults []Accommodation `json:"accommodation_results,omitempty"`
	RestaurantResults    []Restaurant    `json:"restaurant_results,omitempty"`
	AttractionResults    []Attraction    `json:"attraction_results,omitempty"`
	Itinerary            *Itinerary      `json:"itinerary,omitempty"`

	SessionMetadata *SessionMetadata `json:"session_metadata,omitempty"`
}
