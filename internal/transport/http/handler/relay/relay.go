// Package relay serves the /relay endpoint.
package relay

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mandalnilabja/flowrelay/internal/relay"
	"github.com/mandalnilabja/flowrelay/internal/tokenizer"
	"github.com/mandalnilabja/flowrelay/internal/transport/http/middleware"
	"github.com/mandalnilabja/flowrelay/internal/types"
)

// tokenCountTimeout is the maximum time to wait for token counting after the relay finished.
const tokenCountTimeout = 100 * time.Millisecond

// Handlers holds the dependencies for relay HTTP handlers.
type Handlers struct {
	Relay     *relay.Relay
	Tokenizer tokenizer.Tokenizer
	Logger    *slog.Logger
}

// New creates a new instance of relay handlers. tok may be nil.
func New(rl *relay.Relay, tok tokenizer.Tokenizer, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		Relay:     rl,
		Tokenizer: tok,
		Logger:    logger,
	}
}

// HandleRelay serves every relay mode; the mode is chosen from the request shape.
func (h *Handlers) HandleRelay(w http.ResponseWriter, r *http.Request) {
	mode := relay.ModeFor(r)

	var result *types.RelayResult
	var promptTokens int

	switch mode {
	case types.ModeStream:
		result, _ = h.Relay.Stream(r.Context(), w, r.URL.Query().Get("session_id"))

	case types.ModeRun, types.ModeBootstrap:
		req, relayErr := types.DecodeChatRequest(r.Body)
		if relayErr != nil {
			types.WriteError(w, relayErr)
			result = &types.RelayResult{Mode: mode}
			result.Fail(relayErr)
			break
		}

		// Count input tokens in the background so the upstream call starts immediately
		tokensChan := make(chan int, 1)
		go func() {
			defer close(tokensChan)
			if h.Tokenizer != nil {
				if tokens, err := h.Tokenizer.CountTokens(req.InputValue); err == nil {
					tokensChan <- tokens
				}
			}
		}()

		if mode == types.ModeBootstrap {
			result, _ = h.Relay.Bootstrap(r.Context(), w, req)
		} else {
			result, _ = h.Relay.Run(r.Context(), w, req)
		}

		select {
		case tokens, ok := <-tokensChan:
			if ok {
				promptTokens = tokens
			}
		case <-time.After(tokenCountTimeout):
			// Token counting took too long; the estimate is only for logs
		}

	default:
		w.Header().Set("Allow", "GET, POST")
		types.WriteError(w, &types.Error{
			Kind:    types.KindClientInput,
			Status:  http.StatusMethodNotAllowed,
			Message: "method not allowed",
		})
		return
	}

	h.logResult(r, result, promptTokens)
}

// logResult records the outcome of one relay invocation.
func (h *Handlers) logResult(r *http.Request, result *types.RelayResult, promptTokens int) {
	if result == nil {
		return
	}

	attrs := []any{
		"request_id", middleware.GetRequestID(r.Context()),
		"mode", result.Mode.String(),
		"status", result.StatusCode,
		"duration_ms", result.Duration.Milliseconds(),
	}
	if promptTokens > 0 {
		attrs = append(attrs, "input_tokens", promptTokens)
	}
	if result.SessionID != "" {
		attrs = append(attrs, "session_id", result.SessionID)
	}
	if result.Mode == types.ModeStream {
		attrs = append(attrs, "bytes", result.Bytes, "frames", result.Frames)
	}

	if result.Error != nil {
		attrs = append(attrs, "error_kind", result.ErrorKind.String(), "error", result.Error.Error())
		level := slog.LevelWarn
		if result.ErrorKind == types.KindMisconfiguration || result.ErrorKind == types.KindInternal {
			level = slog.LevelError
		}
		h.Logger.Log(r.Context(), level, "relay failed", attrs...)
		return
	}
	h.Logger.Info("relay completed", attrs...)
}
