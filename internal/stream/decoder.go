// Package stream decodes the AgentCore response stream: newline-delimited
// JSON event frames, optionally wrapped in a Server-Sent-Events envelope.
package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/rs/zerolog"

	"github.com/tripagent/tripagent/internal/logging"
	"github.com/tripagent/tripagent/pkg/types"
)

// Decoder splits a raw response body into complete event envelopes.
//
// Frames are newline-delimited JSON. The upstream transport may wrap each
// line in an SSE "data: " field; the prefix is stripped when present. Blank
// lines and ":" comment lines (heartbeats) are skipped. A known upstream
// quirk is double-encoded payloads - a JSON string whose content is the JSON
// envelope - which the decoder unwraps with a second parse.
//
// Malformed individual frames are logged and skipped; only stream-level I/O
// errors are surfaced to the caller.
type Decoder struct {
	r   *bufio.Reader
	log zerolog.Logger
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:   bufio.NewReader(r),
		log: logging.With().Str("component", "stream").Logger(),
	}
}

var ssePrefix = []byte("data:")

// Next returns the next complete envelope from the stream. It returns io.EOF
// when the stream ends cleanly and any other error when the underlying read
// fails; those errors are fatal for the turn.
func (d *Decoder) Next() (*types.Envelope, error) {
	for {
		line, err := d.readLine()
		if err != nil {
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Skip SSE heartbeat comments.
		if len(line) > 0 && line[0] == ':' {
			continue
		}

		// Unwrap an SSE data field when present.
		if bytes.HasPrefix(line, ssePrefix) {
			line = bytes.TrimLeft(bytes.TrimPrefix(line, ssePrefix), " ")
		}

		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		env, derr := decodeFrame(line)
		if derr != nil {
			d.log.Warn().Err(derr).Str("frame", truncate(line, 200)).Msg("skipping malformed frame")
			continue
		}
		return env, nil
	}
}

// readLine reads one line, including a trailing partial line at EOF.
// bufio buffers incomplete data across chunk boundaries for us.
func (d *Decoder) readLine() ([]byte, error) {
	line, err := d.r.ReadBytes('\n')
	if err == io.EOF && len(line) > 0 {
		// Final frame without a trailing newline.
		return line, nil
	}
	if err != nil {
		return nil, err
	}
	return line, nil
}

// decodeFrame parses one frame into an envelope, unwrapping the
// double-encoded variant when the outer value is a JSON string.
func decodeFrame(line []byte) (*types.Envelope, error) {
	var env types.Envelope
	firstErr := json.Unmarshal(line, &env)
	if firstErr == nil && env.Type != "" {
		return &env, nil
	}

	var inner string
	if err := json.Unmarshal(line, &inner); err == nil {
		if err := json.Unmarshal([]byte(inner), &env); err != nil {
			return nil, err
		}
		return &env, nil
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return &env, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
