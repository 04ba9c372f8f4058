// Package langflow implements the Langflow flow run API provider.
package langflow

import (
	"bytes"
	"context"
	"net/http"
	"net/url"

	"github.com/mandalnilabja/flowrelay/internal/types"
)

// Config holds the fixed upstream coordinates.
type Config struct {
	// BaseURL is the API root, e.g. https://host/lf/<org>/api/v1
	BaseURL string

	// FlowID selects the flow executed by run requests
	FlowID string

	// APIKey is sent as a bearer token. Never logged.
	APIKey string
}

// Provider implements the provider.Provider interface for Langflow.
// All fields are constant for the process lifetime.
type Provider struct {
	cfg    Config
	client *http.Client
}

// New creates a Langflow provider. A nil client gets a default transport.
func New(cfg Config, client *http.Client) *Provider {
	if client == nil {
		client = NewHTTPClient()
	}
	return &Provider{cfg: cfg, client: client}
}

// NewHTTPClient returns the client used for upstream calls.
// It has no overall timeout; calls are bounded by their context.
func NewHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// DisableCompression is required for streaming: a gzip-encoded event
	// stream would be relayed as compressed bytes the browser cannot parse.
	transport.DisableCompression = true
	return &http.Client{Transport: transport}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "langflow"
}

// BaseURL returns the Langflow API root
func (p *Provider) BaseURL() string {
	return p.cfg.BaseURL
}

// Host returns the upstream host for logging.
func (p *Provider) Host() string {
	u, err := url.Parse(p.cfg.BaseURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// FlowID returns the configured flow identifier.
func (p *Provider) FlowID() string {
	return p.cfg.FlowID
}

// HasCredential reports whether an API key is configured.
func (p *Provider) HasCredential() bool {
	return p.cfg.APIKey != ""
}

// PrepareRequest sets the bearer credential.
func (p *Provider) PrepareRequest(ctx context.Context, req *http.Request) error {
	if p.cfg.APIKey == "" {
		return types.ErrNoCredential
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	return nil
}

// Run posts body to the flow run endpoint.
func (p *Provider) Run(ctx context.Context, body []byte, stream bool) (*http.Response, error) {
	// Check the credential before building anything so misconfiguration
	// never produces an outbound call.
	if !p.HasCredential() {
		return nil, types.ErrNoCredential
	}

	targetURL, err := buildRunURL(p.cfg.BaseURL, p.cfg.FlowID, stream)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", types.ContentTypeJSON)
	req.Header.Set("Accept", types.ContentTypeJSON)

	if err := p.PrepareRequest(ctx, req); err != nil {
		return nil, err
	}
	return p.client.Do(req)
}

// Stream opens the event stream for sessionID.
func (p *Provider) Stream(ctx context.Context, sessionID string) (*http.Response, error) {
	if !p.HasCredential() {
		return nil, types.ErrNoCredential
	}

	targetURL, err := buildStreamURL(p.cfg.BaseURL, sessionID)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", types.ContentTypeEventStream)
	req.Header.Set("Cache-Control", "no-cache")

	if err := p.PrepareRequest(ctx, req); err != nil {
		return nil, err
	}
	return p.client.Do(req)
}
