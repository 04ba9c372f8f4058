package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mandalnilabja/flowrelay/internal/types"
)

// errStreamIdle cancels an upstream stream that stopped sending data.
var errStreamIdle = errors.New("upstream stream idle")

// Stream opens the upstream event stream for sessionID and relays it to w
// byte for byte until upstream ends, fails, stalls or the caller goes away.
// Once the stream has started, failures end the response without an error body.
func (r *Relay) Stream(parent context.Context, w http.ResponseWriter, sessionID string) (*types.RelayResult, error) {
	startTime := time.Now()
	result := &types.RelayResult{Mode: types.ModeStream, SessionID: sessionID}
	defer func() { result.Duration = time.Since(startTime) }()

	if err := types.ValidateSessionID(sessionID); err != nil {
		return r.fail(parent, w, result, types.ErrClientInput("invalid stream request", err))
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		return r.fail(parent, w, result, types.ErrInternal("streaming unsupported", nil))
	}

	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)

	// The idle guard also covers the wait for upstream response headers.
	idle := time.AfterFunc(r.idleTimeout, func() { cancel(errStreamIdle) })
	defer idle.Stop()

	resp, err := r.upstream.Stream(ctx, sessionID)
	if err != nil {
		return r.fail(parent, w, result, r.classify(ctx, err))
	}
	defer resp.Body.Close()
	result.StatusCode = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, types.MaxDetailBytes))
		r.logger.Warn("upstream stream request failed",
			"status", resp.StatusCode,
			"status_text", http.StatusText(resp.StatusCode),
		)
		return r.fail(parent, w, result, types.ErrUpstreamFailure(resp.StatusCode, "upstream stream request failed", body))
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return r.fail(parent, w, result, types.ErrInternal("upstream returned no stream body", nil))
	}

	types.SetEventStreamHeaders(w.Header())
	w.WriteHeader(resp.StatusCode)
	flusher.Flush()

	counter := &frameCounter{}
	n, err := pump(w, flusher, resp.Body, func(chunk []byte) {
		idle.Reset(r.idleTimeout)
		counter.Observe(chunk)
	})
	result.Bytes = n
	result.Frames = counter.Frames()

	if err != nil {
		if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
			err = fmt.Errorf("%w: %w", cause, err)
		}
		result.Fail(types.ErrStreamTransport(err))
		return result, result.Error
	}
	return result, nil
}

// pump copies src to dst chunk by chunk, flushing after every write so each
// chunk reaches the client as soon as upstream produced it. It returns the
// number of bytes written and nil once src reports io.EOF.
func pump(dst io.Writer, flusher http.Flusher, src io.Reader, onChunk func([]byte)) (int64, error) {
	// 32KB is a standard balance between CPU and syscalls
	buf := make([]byte, 32*1024)
	var written int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if onChunk != nil {
				onChunk(buf[:n])
			}
			m, wErr := dst.Write(buf[:n])
			written += int64(m)
			if wErr != nil {
				// Client disconnected
				return written, wErr
			}
			flusher.Flush()
		}
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}
	}
}

// frameCounter counts blank-line terminated event frames across chunk
// boundaries. Carriage returns are ignored so CRLF framing counts the same.
type frameCounter struct {
	prev   byte
	frames int
}

func (c *frameCounter) Observe(chunk []byte) {
	for _, b := range chunk {
		if b == '\r' {
			continue
		}
		if b == '\n' && c.prev == '\n' {
			c.frames++
			c.prev = 0
			continue
		}
		c.prev = b
	}
}

func (c *frameCounter) Frames() int {
	return c.frames
}
