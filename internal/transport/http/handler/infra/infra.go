package infra

import (
	"time"
)

// UpstreamInfo describes the configured upstream without exposing the credential.
type UpstreamInfo interface {
	Name() string
	Host() string
	FlowID() string
	HasCredential() bool
}

// Handlers holds the dependencies for infrastructure HTTP handlers.
type Handlers struct {
	Upstream  UpstreamInfo
	StartTime time.Time
}

// New creates a new instance of infrastructure handlers.
func New(upstream UpstreamInfo, startTime time.Time) *Handlers {
	return &Handlers{
		Upstream:  upstream,
		StartTime: startTime,
	}
}
