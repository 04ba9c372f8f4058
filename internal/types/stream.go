package types

import (
	"net/http"
	"time"
)

// Event-stream framing helpers

// ContentTypeEventStream is the media type of a server-sent event stream.
const ContentTypeEventStream = "text/event-stream"

// ContentTypeJSON is the media type of run and bootstrap replies.
const ContentTypeJSON = "application/json"

// SetEventStreamHeaders prepares w for relaying an event stream.
func SetEventStreamHeaders(h http.Header) {
	h.Set("Content-Type", ContentTypeEventStream)
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	// Disable proxy buffering (nginx) so frames reach the browser immediately.
	h.Set("X-Accel-Buffering", "no")
}

// Mode selects how a relay invocation is served.
type Mode int

// Relay modes
const (
	ModeUnknown Mode = iota
	// ModeRun forwards a chat request and returns the JSON reply.
	ModeRun
	// ModeBootstrap forwards a chat request with streaming enabled and
	// returns only the session identifier.
	ModeBootstrap
	// ModeStream relays the event stream of an existing session.
	ModeStream
)

func (m Mode) String() string {
	switch m {
	case ModeRun:
		return "run"
	case ModeBootstrap:
		return "bootstrap"
	case ModeStream:
		return "stream"
	default:
		return "unknown"
	}
}

// RelayResult describes one relay invocation for logging.
type RelayResult struct {
	Mode       Mode
	StatusCode int
	SessionID  string

	// Stream accounting
	Bytes  int64
	Frames int

	Duration time.Duration

	// Error info (if any)
	Error     error
	ErrorKind ErrorKind
}

// Fail records err on the result and returns it as an *Error.
func (r *RelayResult) Fail(err *Error) *Error {
	r.Error = err
	r.ErrorKind = err.Kind
	if err.Kind != KindStreamTransport {
		r.StatusCode = err.Status
	}
	return err
}
