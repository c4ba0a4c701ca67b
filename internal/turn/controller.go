package turn

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/tripagent/tripagent/internal/identity"
	"github.com/tripagent/tripagent/internal/logging"
	"github.com/tripagent/tripagent/internal/normalize"
	"github.com/tripagent/tripagent/internal/stream"
	"github.com/tripagent/tripagent/internal/transport"
	"github.com/tripagent/tripagent/pkg/types"
)

var errIncompleteStream = errors.New("stream ended before terminal event")

// Result is the committed outcome of one successful turn.
type Result struct {
	Outcome  normalize.Outcome
	Thinking string
	Tools    []types.ToolProgress
}

// Settings configure a Controller.
type Settings struct {
	// MaxAttempts caps total attempts per turn, including the first.
	MaxAttempts int
	// InitialBackoff is the first retry delay; subsequent delays grow
	// exponentially.
	InitialBackoff time.Duration
	// Timeout bounds the whole turn. A turn may wait on several slow
	// specialist tools upstream, so the default is minutes, not seconds.
	Timeout time.Duration
	// Notify, when set, observes every backoff delay (used by tests).
	Notify backoff.Notify
}

// Controller executes one request/stream cycle with resilience: validation
// before any network call, bounded exponential-backoff retries for transient
// transport failures, and immediate propagation of client and protocol
// errors.
type Controller struct {
	client   *transport.Client
	settings Settings
	log      zerolog.Logger
}

// NewController creates a controller around the given transport client.
func NewController(client *transport.Client, settings Settings) *Controller {
	if settings.MaxAttempts <= 0 {
		settings.MaxAttempts = 3
	}
	if settings.InitialBackoff <= 0 {
		settings.InitialBackoff = 500 * time.Millisecond
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 5 * time.Minute
	}
	return &Controller{
		client:   client,
		settings: settings,
		log:      logging.With().Str("component", "turn").Logger(),
	}
}

// Run executes one streaming turn to its terminal state.
func (c *Controller) Run(ctx context.Context, prompt, sessionID string, auth *identity.AuthContext, hooks Hooks) (*Result, error) {
	if err := c.validate(prompt, auth); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.settings.Timeout)
	defer cancel()

	return c.retry(ctx, func() (*Result, error) {
		return c.attempt(ctx, prompt, sessionID, auth, hooks)
	})
}

// RunInvoke executes one turn against the non-streaming endpoint. The single
// JSON response is folded through the same normalizer as a final_response
// frame.
func (c *Controller) RunInvoke(ctx context.Context, prompt, sessionID string, auth *identity.AuthContext) (*Result, error) {
	if err := c.validate(prompt, auth); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.settings.Timeout)
	defer cancel()

	return c.retry(ctx, func() (*Result, error) {
		payload, err := c.client.Invoke(ctx, prompt, sessionID, auth)
		if err != nil {
			return nil, wrapTransport(err)
		}
		return &Result{Outcome: normalize.Normalize(payload)}, nil
	})
}

func (c *Controller) validate(prompt string, auth *identity.AuthContext) error {
	if err := auth.Require(); err != nil {
		return &ValidationError{Reason: "sign in before sending messages"}
	}
	if strings.TrimSpace(prompt) == "" {
		return &ValidationError{Reason: "message is empty"}
	}
	return nil
}

// retry runs op under the controller's backoff policy. Non-retryable errors
// short-circuit immediately.
func (c *Controller) retry(ctx context.Context, op func() (*Result, error)) (*Result, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.settings.InitialBackoff
	policy := backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(c.settings.MaxAttempts-1)),
		ctx,
	)

	attempt := 0
	operation := func() (*Result, error) {
		attempt++
		res, err := op()
		if err != nil {
			if !Retryable(err) {
				return nil, backoff.Permanent(err)
			}
			c.log.Warn().Err(err).Int("attempt", attempt).Msg("turn attempt failed")
		}
		return res, err
	}

	return backoff.RetryNotifyWithData(operation, policy, c.settings.Notify)
}

// attempt runs one full stream cycle: open request, decode frames, feed the
// state machine until a terminal transition or stream end.
func (c *Controller) attempt(ctx context.Context, prompt, sessionID string, auth *identity.AuthContext, hooks Hooks) (*Result, error) {
	if hooks.OnReset != nil {
		hooks.OnReset()
	}

	body, err := c.client.Stream(ctx, prompt, sessionID, auth)
	if err != nil {
		return nil, wrapTransport(err)
	}
	defer body.Close()

	dec := stream.NewDecoder(body)
	router := NewRouter(hooks)

	for !router.Terminal() {
		env, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Connection drop mid-stream is fatal for the attempt.
			return nil, &TransportError{Err: err}
		}

		ev, perr := stream.ParseEvent(env)
		if perr != nil {
			c.log.Warn().Err(perr).Msg("skipping undecodable event")
			continue
		}
		router.Handle(ev)
	}

	switch router.State() {
	case StateCompleted:
		return &Result{
			Outcome:  *router.Outcome(),
			Thinking: router.Thinking(),
			Tools:    router.Tools(),
		}, nil
	case StateFailed:
		return nil, &ProtocolError{Message: router.ErrMessage()}
	default:
		return nil, &TransportError{Err: errIncompleteStream}
	}
}

// wrapTransport classifies a request error: status errors keep their own
// identity so Retryable can inspect the class, everything else is transport.
func wrapTransport(err error) error {
	var se *transport.StatusError
	if errors.As(err, &se) {
		return err
	}
	return &TransportError{Err: err}
}

// UserFacingMessage renders an unrecoverable turn error as the agent message
// shown in the conversation.
func UserFacingMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return "I couldn't send that: " + ve.Reason + "."
	}
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Message
	}
	var se *transport.StatusError
	if errors.As(err, &se) && se.ClientError() {
		return "The travel service rejected the request. Please try rephrasing your message."
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The travel service took too long to respond. Please try again."
	}
	return "Sorry, I couldn't reach the travel service. Please try again in a moment."
}
