// Package identity generates wire-contract identifiers and carries the
// caller's authentication context.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/tripagent/tripagent/pkg/types"
)

// SessionIDPrefix is the fixed prefix on every session identifier.
const SessionIDPrefix = "travel-session"

// ErrNoToken is returned when an operation requires authentication and the
// auth context has no access token.
var ErrNoToken = errors.New("no access token")

// NewSessionID returns a collision-resistant session identifier of the form
// prefix-timestamp-randomsuffix. The result always satisfies the AgentCore
// minimum length contract (>= 33 characters).
func NewSessionID() string {
	return fmt.Sprintf("%s-%d-%s", SessionIDPrefix, time.Now().UnixMilli(), ulid.Make().String())
}

// ValidSessionID reports whether id satisfies the wire contract.
func ValidSessionID(id string) bool {
	return len(id) >= types.MinSessionIDLength && strings.HasPrefix(id, SessionIDPrefix+"-")
}

// NewMessageID returns a sortable message identifier.
func NewMessageID() string {
	return "msg-" + ulid.Make().String()
}

// NewTurnID returns a request identifier for one turn, sent as X-Request-Id
// for log correlation with the service.
func NewTurnID() string {
	return uuid.NewString()
}

// AuthContext carries the bearer token and user identity supplied by the
// external identity provider. The core only reads it at send time.
type AuthContext struct {
	AccessToken string
	UserID      string
}

// Require returns ErrNoToken when no usable token is present.
func (a *AuthContext) Require() error {
	if a == nil || strings.TrimSpace(a.AccessToken) == "" {
		return ErrNoToken
	}
	return nil
}
