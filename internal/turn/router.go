package turn

import (
	"github.com/rs/zerolog"

	"github.com/tripagent/tripagent/internal/logging"
	"github.com/tripagent/tripagent/internal/normalize"
	"github.com/tripagent/tripagent/internal/stream"
	"github.com/tripagent/tripagent/pkg/types"
)

// State is the structural state of one orchestration turn.
type State string

const (
	StateIdle           State = "idle"
	StateAwaitingStatus State = "awaiting_status"
	StateToolRunning    State = "tool_running"
	StateFinalizing     State = "finalizing"
	StateCompleted      State = "completed"
	StateFailed         State = "failed"
)

// Hooks are the router's notifications into turn-scoped presentation state.
// All hooks are invoked synchronously, in stream order, from the single
// event-processing goroutine. Any hook may be nil.
type Hooks struct {
	// OnThinking reports a new thinking/status message.
	OnThinking func(message string)
	// OnToolProgress reports an inserted or updated tool-progress entry.
	OnToolProgress func(tp types.ToolProgress)
	// OnReset is called by the controller at the start of every attempt so
	// turn-scoped state from a failed attempt does not leak into its retry.
	OnReset func()
}

// Router is the protocol state machine for one turn. It classifies each
// decoded event, mutates turn-scoped state, and latches exactly one terminal
// transition. Frames arriving after the terminal transition are ignored.
//
// The router is not safe for concurrent use; the turn pipeline feeds it from
// a single goroutine in arrival order.
type Router struct {
	state    State
	thinking string

	// Tool progress keyed by tool ID, ordered by first-seen.
	order []string
	tools map[string]*types.ToolProgress

	outcome *normalize.Outcome
	errMsg  string

	hooks Hooks
	log   zerolog.Logger
}

// NewRouter returns a router in the awaiting-status state.
func NewRouter(hooks Hooks) *Router {
	return &Router{
		state: StateAwaitingStatus,
		tools: make(map[string]*types.ToolProgress),
		hooks: hooks,
		log:   logging.With().Str("component", "router").Logger(),
	}
}

// State returns the current structural state.
func (r *Router) State() State {
	return r.state
}

// Terminal reports whether the turn has reached completed or failed.
func (r *Router) Terminal() bool {
	return r.state == StateCompleted || r.state == StateFailed
}

// Thinking returns the most recent thinking/status message.
func (r *Router) Thinking() string {
	return r.thinking
}

// Outcome returns the normalized terminal outcome, nil until completed.
func (r *Router) Outcome() *normalize.Outcome {
	return r.outcome
}

// ErrMessage returns the service error message after a failed transition.
func (r *Router) ErrMessage() string {
	return r.errMsg
}

// Tools returns the tool-progress entries ordered by first appearance.
func (r *Router) Tools() []types.ToolProgress {
	out := make([]types.ToolProgress, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.tools[id])
	}
	return out
}

// Handle processes one event synchronously. Events after a terminal
// transition are dropped.
func (r *Router) Handle(ev stream.Event) {
	if r.Terminal() {
		r.log.Debug().Str("state", string(r.state)).Msg("dropping event after terminal transition")
		return
	}

	switch e := ev.(type) {
	case stream.StatusEvent:
		r.thinking = e.Message
		if r.hooks.OnThinking != nil {
			r.hooks.OnThinking(e.Message)
		}

	case stream.ToolStartEvent:
		r.state = StateToolRunning
		tp := r.upsert(e.ToolID)
		if e.Name != "" {
			tp.Name = e.Name
		}
		if e.Description != "" {
			tp.Description = e.Description
		}
		// No regression once a tool already reported its outcome.
		if !tp.Status.Terminal() {
			tp.Status = types.ToolActive
		}
		r.notifyTool(tp)

	case stream.ToolCompleteEvent:
		// A missing tool_start must not crash the turn: the entry is
		// created directly in its terminal state.
		tp := r.upsert(e.ToolID)
		tp.Status = e.Status
		if e.Preview != "" {
			tp.Preview = e.Preview
		}
		if e.Error != "" {
			tp.Error = e.Error
		}
		r.notifyTool(tp)

	case stream.FinalResponseEvent:
		r.state = StateFinalizing
		outcome := normalize.Normalize(&e.Payload)
		r.outcome = &outcome
		r.state = StateCompleted

	case stream.ErrorEvent:
		r.errMsg = e.Message
		r.state = StateFailed

	case stream.UnknownEvent:
		r.log.Debug().Str("type", e.Type).Msg("ignoring unknown event type")

	default:
		// Closed sum; unreachable unless a new event kind is added
		// without a router arm.
		r.log.Warn().Msg("unhandled event kind")
	}
}

func (r *Router) upsert(toolID string) *types.ToolProgress {
	if tp, ok := r.tools[toolID]; ok {
		return tp
	}
	tp := &types.ToolProgress{
		ToolID: toolID,
		Name:   toolID,
		Status: types.ToolPending,
	}
	r.tools[toolID] = tp
	r.order = append(r.order, toolID)
	return tp
}

func (r *Router) notifyTool(tp *types.ToolProgress) {
	if r.hooks.OnToolProgress != nil {
		r.hooks.OnToolProgress(*tp)
	}
}
