// Package types defines the shared data model for the tripagent client:
// sessions, messages, tool progress, normalized results, and the wire
// shapes exchanged with the AgentCore orchestration service.
package types

// Session identifies one conversation with the orchestration service.
// Replacing a session discards all messages and results tied to it.
type Session struct {
	ID     string      `json:"id"`
	Active bool        `json:"active"`
	Time   SessionTime `json:"time"`
}

// SessionTime contains timestamps for a session.
type SessionTime struct {
	Created int64 `json:"created"`
}

// MinSessionIDLength is the minimum session identifier length accepted by
// the AgentCore wire contract.
const MinSessionIDLength = 33
