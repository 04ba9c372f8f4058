// Package relay forwards chat requests to the upstream flow API and relays
// the JSON reply or event stream back to the caller.
package relay

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mandalnilabja/flowrelay/internal/provider"
	"github.com/mandalnilabja/flowrelay/internal/types"
)

// Default bounds on upstream waits.
const (
	DefaultUpstreamTimeout   = 9 * time.Second
	DefaultStreamIdleTimeout = 60 * time.Second
)

// Options configures a Relay.
type Options struct {
	// UpstreamTimeout bounds run and bootstrap exchanges.
	UpstreamTimeout time.Duration

	// StreamIdleTimeout ends a relayed stream after this long without data.
	StreamIdleTimeout time.Duration

	Logger *slog.Logger
}

// Relay serves relay invocations. It holds no per-request state and is safe
// for concurrent use.
type Relay struct {
	upstream    provider.Provider
	timeout     time.Duration
	idleTimeout time.Duration
	logger      *slog.Logger

	credentialWarning sync.Once
}

// New creates a Relay that forwards to upstream.
func New(upstream provider.Provider, opts Options) *Relay {
	if opts.UpstreamTimeout <= 0 {
		opts.UpstreamTimeout = DefaultUpstreamTimeout
	}
	if opts.StreamIdleTimeout <= 0 {
		opts.StreamIdleTimeout = DefaultStreamIdleTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Relay{
		upstream:    upstream,
		timeout:     opts.UpstreamTimeout,
		idleTimeout: opts.StreamIdleTimeout,
		logger:      opts.Logger,
	}
}

// ModeFor selects the relay mode from the request shape:
// GET is a stream read, POST with stream=true is a session bootstrap and
// any other POST is a single-shot run.
func ModeFor(r *http.Request) types.Mode {
	switch r.Method {
	case http.MethodGet:
		return types.ModeStream
	case http.MethodPost:
		if isTrue(r.URL.Query().Get("stream")) {
			return types.ModeBootstrap
		}
		return types.ModeRun
	default:
		return types.ModeUnknown
	}
}

func isTrue(v string) bool {
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// classify maps an error from the upstream call into the relay taxonomy.
func (r *Relay) classify(ctx context.Context, err error) *types.Error {
	var relayErr *types.Error
	switch {
	case errors.As(err, &relayErr):
		return relayErr
	case errors.Is(err, types.ErrNoCredential):
		r.credentialWarning.Do(func() {
			r.logger.Error("upstream credential is not configured; relay requests will fail",
				"provider", r.upstream.Name())
		})
		return types.ErrMisconfiguration(err)
	case errors.Is(err, errStreamIdle), errors.Is(context.Cause(ctx), errStreamIdle):
		return types.ErrUpstreamTimeout(errStreamIdle)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return types.ErrUpstreamTimeout(err)
	default:
		return types.ErrUpstreamUnreachable(err)
	}
}

// clientGone reports whether the caller cancelled the request.
func clientGone(parent context.Context) bool {
	return errors.Is(parent.Err(), context.Canceled)
}
