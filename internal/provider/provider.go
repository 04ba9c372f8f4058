// Package provider defines the upstream agent-execution API the relay talks to.
package provider

import (
	"context"
	"net/http"
)

// Provider is the upstream flow run API.
// Implementations return the raw upstream response; the caller owns and
// must close its body.
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// BaseURL returns the provider's API root
	BaseURL() string

	// PrepareRequest attaches the credential and provider-specific headers.
	// It fails before any network activity when no credential is configured.
	PrepareRequest(ctx context.Context, req *http.Request) error

	// Run posts a chat request body to the flow run endpoint.
	// stream asks upstream to open a session for a later Stream call.
	Run(ctx context.Context, body []byte, stream bool) (*http.Response, error)

	// Stream opens the event stream of a session started by Run.
	Stream(ctx context.Context, sessionID string) (*http.Response, error)
}
