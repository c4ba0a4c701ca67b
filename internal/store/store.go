// Package store holds the conversation state for one AgentCore session: the
// append-only message log, in-flight turn state, tool progress, and the
// current normalized result. SendMessage is the only entry point that talks
// to the network; every other mutation is local.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripagent/tripagent/internal/event"
	"github.com/tripagent/tripagent/internal/identity"
	"github.com/tripagent/tripagent/internal/logging"
	"github.com/tripagent/tripagent/internal/turn"
	"github.com/tripagent/tripagent/pkg/types"
)

// inflightTurn tracks the cancellation handle of the turn currently on the
// wire. At most one exists per store.
type inflightTurn struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Store is the session/conversation store. Constructed explicitly with its
// collaborators injected; there is no package-level instance.
type Store struct {
	controller *turn.Controller
	bus        *event.Bus

	// admitMu serializes turn admission so supersede-then-register is
	// atomic when two callers race into send.
	admitMu sync.Mutex

	mu       sync.RWMutex
	auth     *identity.AuthContext
	session  types.Session
	messages []types.Message
	result   *types.NormalizedResult

	// Turn-scoped state, cleared when the turn reaches a terminal state.
	inflight  *inflightTurn
	thinking  string
	toolOrder []string
	tools     map[string]types.ToolProgress
	sending   bool
	streaming bool
	lastErr   error

	log zerolog.Logger
}

// New creates a store with a fresh active session.
func New(controller *turn.Controller, bus *event.Bus) *Store {
	if bus == nil {
		bus = event.NewBus()
	}
	s := &Store{
		controller: controller,
		bus:        bus,
		tools:      make(map[string]types.ToolProgress),
		log:        logging.With().Str("component", "store").Logger(),
	}
	s.session = newSession(true)
	return s
}

func newSession(active bool) types.Session {
	return types.Session{
		ID:     identity.NewSessionID(),
		Active: active,
		Time:   types.SessionTime{Created: time.Now().UnixMilli()},
	}
}

// Bus returns the bus this store publishes change notifications on.
func (s *Store) Bus() *event.Bus {
	return s.bus
}

// SetAuth replaces the auth context read at send time. Passing nil signs
// the user out; the session is also replaced so no state outlives the
// identity it was created under.
func (s *Store) SetAuth(auth *identity.AuthContext) {
	s.mu.Lock()
	s.auth = auth
	s.mu.Unlock()
	if auth == nil {
		s.ClearSession()
	}
}

// SendMessage executes one full turn for text: append the user message,
// stream the response through the decoder/router pipeline, and commit the
// terminal outcome. It blocks until the turn reaches a terminal state.
//
// Starting a new send while a turn is in flight supersedes the old turn:
// its context is cancelled and its effects are discarded before the new
// turn begins.
func (s *Store) SendMessage(ctx context.Context, text string) error {
	return s.send(ctx, text, true)
}

// InvokeMessage is the non-streaming variant of SendMessage: a single JSON
// response folded through the same normalizer. No intermediate thinking or
// tool-progress updates are observed.
func (s *Store) InvokeMessage(ctx context.Context, text string) error {
	return s.send(ctx, text, false)
}

func (s *Store) send(ctx context.Context, text string, streaming bool) error {
	s.mu.Lock()
	auth := s.auth
	s.mu.Unlock()

	// Fail fast before touching the log or the network.
	if err := auth.Require(); err != nil {
		verr := &turn.ValidationError{Reason: "sign in before sending messages"}
		s.setErr(verr)
		return verr
	}
	if isBlank(text) {
		verr := &turn.ValidationError{Reason: "message is empty"}
		s.setErr(verr)
		return verr
	}

	s.admitMu.Lock()
	s.supersedeInflight()

	turnCtx, cancel := context.WithCancel(ctx)
	flight := &inflightTurn{cancel: cancel, done: make(chan struct{})}
	defer close(flight.done)
	defer cancel()

	s.mu.Lock()
	s.inflight = flight
	s.sending = true
	s.streaming = streaming
	s.lastErr = nil
	sessionID := s.session.ID
	userMsg := types.Message{
		ID:      identity.NewMessageID(),
		Role:    types.RoleUser,
		Content: text,
		Time:    types.MessageTime{Created: time.Now().UnixMilli()},
	}
	s.messages = append(s.messages, userMsg)
	s.mu.Unlock()
	s.admitMu.Unlock()

	s.bus.PublishSync(event.Event{Type: event.MessageAdded, Data: event.MessageAddedData{Message: userMsg}})
	s.bus.PublishSync(event.Event{Type: event.TurnStarted, Data: event.TurnStartedData{UserMessageID: userMsg.ID}})

	var result *turn.Result
	var err error
	if streaming {
		result, err = s.controller.Run(turnCtx, text, sessionID, auth, s.hooks())
	} else {
		result, err = s.controller.RunInvoke(turnCtx, text, sessionID, auth)
	}

	if err != nil {
		s.finishFailed(flight, turnCtx, err)
		return err
	}

	s.finishCompleted(flight, result)
	return nil
}

// supersedeInflight cancels the previous turn and waits for it to unwind so
// two turns never interleave their effects.
func (s *Store) supersedeInflight() {
	s.mu.Lock()
	prev := s.inflight
	s.mu.Unlock()

	if prev == nil {
		return
	}
	s.log.Warn().Msg("superseding in-flight turn")
	prev.cancel()
	<-prev.done
}

// hooks wires router notifications into turn-scoped store state. Hooks run
// synchronously from the stream-processing goroutine, in arrival order.
func (s *Store) hooks() turn.Hooks {
	return turn.Hooks{
		OnReset: func() {
			s.mu.Lock()
			s.thinking = ""
			s.toolOrder = nil
			s.tools = make(map[string]types.ToolProgress)
			s.mu.Unlock()
		},
		OnThinking: func(message string) {
			s.mu.Lock()
			s.thinking = message
			s.mu.Unlock()
			s.bus.PublishSync(event.Event{Type: event.ThinkingUpdated, Data: event.ThinkingUpdatedData{Message: message}})
		},
		OnToolProgress: func(tp types.ToolProgress) {
			s.mu.Lock()
			if _, seen := s.tools[tp.ToolID]; !seen {
				s.toolOrder = append(s.toolOrder, tp.ToolID)
			}
			s.tools[tp.ToolID] = tp
			s.mu.Unlock()
			s.bus.PublishSync(event.Event{Type: event.ToolProgressed, Data: event.ToolProgressedData{Tool: tp}})
		},
	}
}

// finishCompleted commits the terminal outcome atomically: agent message,
// current result, and cleared in-flight state change under one lock.
func (s *Store) finishCompleted(flight *inflightTurn, result *turn.Result) {
	outcome := result.Outcome

	agentMsg := types.Message{
		ID:      identity.NewMessageID(),
		Role:    types.RoleAgent,
		Content: outcome.Message,
		Time:    types.MessageTime{Created: time.Now().UnixMilli()},
		Meta: &types.MessageMeta{
			SessionID:      outcome.SessionID,
			ResponseType:   outcome.ResponseType,
			ResponseStatus: outcome.ResponseStatus,
			Result:         outcome.Result,
			Tools:          result.Tools,
		},
	}

	s.mu.Lock()
	if s.inflight != flight {
		// Superseded while finishing; drop the commit.
		s.mu.Unlock()
		return
	}
	s.messages = append(s.messages, agentMsg)
	if outcome.Result != nil {
		s.result = outcome.Result
	}
	s.clearTurnLocked()
	s.mu.Unlock()

	s.bus.PublishSync(event.Event{Type: event.MessageAdded, Data: event.MessageAddedData{Message: agentMsg}})
	if outcome.Result != nil {
		s.bus.PublishSync(event.Event{Type: event.ResultUpdated, Data: event.ResultUpdatedData{Result: outcome.Result}})
	}
	s.bus.PublishSync(event.Event{Type: event.TurnFinished, Data: event.TurnFinishedData{Failed: false}})
}

// finishFailed clears in-flight state and, unless the turn was superseded,
// records a user-visible agent error message. The in-flight flags are
// cleared on every path so the UI is never left pending.
func (s *Store) finishFailed(flight *inflightTurn, turnCtx context.Context, err error) {
	superseded := errors.Is(turnCtx.Err(), context.Canceled)

	s.mu.Lock()
	if s.inflight != flight {
		s.mu.Unlock()
		return
	}
	s.lastErr = err
	var agentMsg *types.Message
	if !superseded {
		agentMsg = &types.Message{
			ID:      identity.NewMessageID(),
			Role:    types.RoleAgent,
			Content: turn.UserFacingMessage(err),
			Time:    types.MessageTime{Created: time.Now().UnixMilli()},
			Meta:    &types.MessageMeta{IsError: true, Tools: s.toolsLocked()},
		}
		s.messages = append(s.messages, *agentMsg)
	}
	s.clearTurnLocked()
	s.mu.Unlock()

	if agentMsg != nil {
		s.bus.PublishSync(event.Event{Type: event.MessageAdded, Data: event.MessageAddedData{Message: *agentMsg}})
	}
	s.bus.PublishSync(event.Event{Type: event.TurnFinished, Data: event.TurnFinishedData{Failed: true}})
}

// clearTurnLocked resets all turn-scoped state. Callers hold s.mu.
func (s *Store) clearTurnLocked() {
	s.inflight = nil
	s.sending = false
	s.streaming = false
	s.thinking = ""
	s.toolOrder = nil
	s.tools = make(map[string]types.ToolProgress)
}

func (s *Store) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// StartNewSession replaces the session with a fresh active one, discarding
// all messages and the current result.
func (s *Store) StartNewSession() types.Session {
	return s.replaceSession(true)
}

// ClearSession replaces the session with an inactive one, discarding all
// messages and the current result. Used on sign-out.
func (s *Store) ClearSession() types.Session {
	return s.replaceSession(false)
}

func (s *Store) replaceSession(active bool) types.Session {
	s.admitMu.Lock()
	defer s.admitMu.Unlock()
	s.supersedeInflight()

	s.mu.Lock()
	s.session = newSession(active)
	s.messages = nil
	s.result = nil
	s.lastErr = nil
	s.clearTurnLocked()
	session := s.session
	s.mu.Unlock()

	s.bus.PublishSync(event.Event{Type: event.SessionReplaced, Data: event.SessionReplacedData{Session: session}})
	s.bus.PublishSync(event.Event{Type: event.ResultUpdated, Data: event.ResultUpdatedData{}})
	return session
}

// Session returns the current session.
func (s *Store) Session() types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Messages returns the conversation log in insertion order.
func (s *Store) Messages() []types.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Result returns the current normalized result, nil when none.
func (s *Store) Result() *types.NormalizedResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Thinking returns the in-flight turn's latest status message.
func (s *Store) Thinking() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thinking
}

// Tools returns the in-flight turn's tool progress, ordered by first-seen.
func (s *Store) Tools() []types.ToolProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.toolsLocked()
}

func (s *Store) toolsLocked() []types.ToolProgress {
	out := make([]types.ToolProgress, 0, len(s.toolOrder))
	for _, id := range s.toolOrder {
		out = append(out, s.tools[id])
	}
	return out
}

// IsSending reports whether a turn is in flight.
func (s *Store) IsSending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sending
}

// IsStreaming reports whether a streaming turn is in flight.
func (s *Store) IsStreaming() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streaming
}

// Err returns the last turn error, nil after a successful turn.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func isBlank(text string) bool {
	for _, r := range text {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
