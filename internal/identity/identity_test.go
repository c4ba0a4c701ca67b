package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tripagent/tripagent/pkg/types"
)

func TestNewSessionID_Format(t *testing.T) {
	id := NewSessionID()

	assert.True(t, strings.HasPrefix(id, SessionIDPrefix+"-"))
	assert.GreaterOrEqual(t, len(id), types.MinSessionIDLength)
	assert.True(t, ValidSessionID(id))
}

func TestNewSessionID_Unique(t *testing.T) {
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		id := NewSessionID()
		assert.GreaterOrEqual(t, len(id), types.MinSessionIDLength)
		if seen[id] {
			t.Fatalf("duplicate session ID after %d generations: %s", i, id)
		}
		seen[id] = true
	}
}

func TestValidSessionID(t *testing.T) {
	assert.False(t, ValidSessionID(""))
	assert.False(t, ValidSessionID("travel-session-123"))
	assert.False(t, ValidSessionID(strings.Repeat("x", 40)))
	assert.True(t, ValidSessionID(NewSessionID()))
}

func TestNewMessageID(t *testing.T) {
	a := NewMessageID()
	b := NewMessageID()
	assert.True(t, strings.HasPrefix(a, "msg-"))
	assert.NotEqual(t, a, b)
}

func TestAuthContext_Require(t *testing.T) {
	var nilAuth *AuthContext
	assert.ErrorIs(t, nilAuth.Require(), ErrNoToken)
	assert.ErrorIs(t, (&AuthContext{}).Require(), ErrNoToken)
	assert.ErrorIs(t, (&AuthContext{AccessToken: "   "}).Require(), ErrNoToken)
	assert.NoError(t, (&AuthContext{AccessToken: "tok"}).Require())
}
