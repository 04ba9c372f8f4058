package handler

import (
	"log/slog"
	"time"

	"github.com/mandalnilabja/flowrelay/internal/relay"
	"github.com/mandalnilabja/flowrelay/internal/tokenizer"
	"github.com/mandalnilabja/flowrelay/internal/transport/http/handler/infra"
	relayhandler "github.com/mandalnilabja/flowrelay/internal/transport/http/handler/relay"
	"github.com/mandalnilabja/flowrelay/internal/transport/http/handler/webui"
)

// Repo composes all domain-specific handlers.
type Repo struct {
	Relay *relayhandler.Handlers
	WebUI *webui.Handlers
	Infra *infra.Handlers
}

// NewRepo creates a new instance of the composed handler repository.
func NewRepo(rl *relay.Relay, tok tokenizer.Tokenizer, upstream infra.UpstreamInfo, logger *slog.Logger) *Repo {
	startTime := time.Now()
	return &Repo{
		Relay: relayhandler.New(rl, tok, logger),
		WebUI: webui.New(),
		Infra: infra.New(upstream, startTime),
	}
}
