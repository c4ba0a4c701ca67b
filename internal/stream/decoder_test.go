package stream

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripagent/tripagent/pkg/types"
)

// chunkReader yields at most n bytes per Read to exercise frames that span
// chunk boundaries.
type chunkReader struct {
	data []byte
	n    int
	pos  int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	end := r.pos + r.n
	if end > len(r.data) {
		end = len(r.data)
	}
	if end-r.pos > len(p) {
		end = r.pos + len(p)
	}
	n := copy(p, r.data[r.pos:end])
	r.pos += n
	return n, nil
}

func collectFrames(t *testing.T, r io.Reader) []types.Envelope {
	t.Helper()
	dec := NewDecoder(r)
	var frames []types.Envelope
	for {
		env, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return frames
		}
		require.NoError(t, err)
		frames = append(frames, *env)
	}
}

const sampleStream = `{"type":"status","data":{"message":"thinking"}}
{"type":"tool_start","data":{"tool_id":"search_flights"}}
{"type":"tool_complete","data":{"tool_id":"search_flights","status":"completed"}}
{"type":"final_response","data":{"message":"done","response_type":"conversation"}}
`

func TestDecoder_BasicNDJSON(t *testing.T) {
	frames := collectFrames(t, strings.NewReader(sampleStream))

	require.Len(t, frames, 4)
	assert.Equal(t, types.EventStatus, frames[0].Type)
	assert.Equal(t, types.EventToolStart, frames[1].Type)
	assert.Equal(t, types.EventToolComplete, frames[2].Type)
	assert.Equal(t, types.EventFinalResponse, frames[3].Type)
}

func TestDecoder_ChunkSplitInvariance(t *testing.T) {
	// Every chunk size, including splits mid-line, must reconstruct the
	// same ordered frame sequence as the unsplit stream.
	want := collectFrames(t, strings.NewReader(sampleStream))

	for n := 1; n <= len(sampleStream); n++ {
		got := collectFrames(t, &chunkReader{data: []byte(sampleStream), n: n})
		require.Equal(t, want, got, "chunk size %d", n)
	}
}

func TestDecoder_SSEEnvelope(t *testing.T) {
	sse := "data: {\"type\":\"status\",\"data\":{\"message\":\"hi\"}}\n" +
		"\n" +
		": heartbeat\n" +
		"data:{\"type\":\"final_response\",\"data\":{\"message\":\"bye\"}}\n"

	frames := collectFrames(t, strings.NewReader(sse))

	require.Len(t, frames, 2)
	assert.Equal(t, types.EventStatus, frames[0].Type)
	assert.Equal(t, types.EventFinalResponse, frames[1].Type)
}

func TestDecoder_MixedPrefixLines(t *testing.T) {
	// Lines without the SSE prefix pass through unchanged.
	mixed := "data: {\"type\":\"status\",\"data\":{\"message\":\"a\"}}\n" +
		"{\"type\":\"status\",\"data\":{\"message\":\"b\"}}\n"

	frames := collectFrames(t, strings.NewReader(mixed))
	require.Len(t, frames, 2)
}

func TestDecoder_SkipsMalformedFrames(t *testing.T) {
	in := "{\"type\":\"status\",\"data\":{\"message\":\"ok\"}}\n" +
		"{not json at all\n" +
		"{\"type\":\"final_response\",\"data\":{\"message\":\"done\"}}\n"

	frames := collectFrames(t, strings.NewReader(in))

	require.Len(t, frames, 2)
	assert.Equal(t, types.EventStatus, frames[0].Type)
	assert.Equal(t, types.EventFinalResponse, frames[1].Type)
}

func TestDecoder_DoubleEncodedFrames(t *testing.T) {
	// A JSON string whose content is the envelope document.
	in := `"{\"type\":\"status\",\"data\":{\"message\":\"wrapped\"}}"` + "\n"

	frames := collectFrames(t, strings.NewReader(in))

	require.Len(t, frames, 1)
	assert.Equal(t, types.EventStatus, frames[0].Type)
	assert.JSONEq(t, `{"message":"wrapped"}`, string(frames[0].Data))
}

func TestDecoder_FinalLineWithoutNewline(t *testing.T) {
	in := "{\"type\":\"status\",\"data\":{\"message\":\"a\"}}\n" +
		"{\"type\":\"final_response\",\"data\":{\"message\":\"b\"}}" // no trailing \n

	frames := collectFrames(t, strings.NewReader(in))
	require.Len(t, frames, 2)
}

func TestDecoder_BlankStream(t *testing.T) {
	frames := collectFrames(t, strings.NewReader("\n\n\n"))
	assert.Empty(t, frames)
}
