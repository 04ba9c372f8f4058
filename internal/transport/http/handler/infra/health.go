package infra

import (
	"net/http"
	"time"

	"github.com/mandalnilabja/flowrelay/internal/transport/http/handler/shared"
	"github.com/mandalnilabja/flowrelay/internal/version"
)

// RootStatus returns JSON status and version information at /.
func (h *Handlers) RootStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	shared.WriteJSON(w, map[string]any{
		"name":    "flowrelay",
		"version": version.Version,
		"status":  "running",
		"relay":   "/relay",
	}, http.StatusOK)
}

// HealthCheck handler returns the application health status.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, map[string]string{
		"status": "active",
		"app":    "flowrelay",
	}, http.StatusOK)
}

// Info reports build and upstream details. The credential is only reported
// as present or absent.
func (h *Handlers) Info(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, map[string]any{
		"name":           "flowrelay",
		"version":        version.Version,
		"uptime_seconds": int64(time.Since(h.StartTime).Seconds()),
		"upstream": map[string]any{
			"provider":       h.Upstream.Name(),
			"host":           h.Upstream.Host(),
			"flow_id":        h.Upstream.FlowID(),
			"credential_set": h.Upstream.HasCredential(),
		},
	}, http.StatusOK)
}
