package app

import (
	"log/slog"
	"net/http"

	"github.com/mandalnilabja/flowrelay/internal/transport/http/handler"
	"github.com/mandalnilabja/flowrelay/internal/transport/http/middleware"
)

// RouterOptions configures the HTTP router behavior.
type RouterOptions struct {
	EnableWebUI bool
	Logger      *slog.Logger
}

// NewRouter creates and configures the HTTP router with all application routes.
// Returns an http.Handler with middleware applied.
func NewRouter(repo *handler.Repo, opts *RouterOptions) http.Handler {
	if opts == nil {
		opts = &RouterOptions{}
	}
	mux := http.NewServeMux()

	// Relay accepts every method; unsupported ones get a JSON 405
	mux.HandleFunc("/relay", repo.Relay.HandleRelay)

	mux.HandleFunc("GET /api/health", repo.Infra.HealthCheck)
	mux.HandleFunc("GET /api/info", repo.Infra.Info)

	if opts.EnableWebUI {
		chat := repo.WebUI.ChatPage()
		mux.Handle("GET /{$}", chat)
		mux.Handle("GET /static/", chat)
	} else {
		mux.HandleFunc("GET /{$}", repo.Infra.RootStatus)
	}

	mws := []func(http.Handler) http.Handler{middleware.CORS, middleware.RequestID}
	if opts.Logger != nil {
		mws = append(mws, middleware.RequestLogger(opts.Logger))
	}
	return middleware.Chain(mux, mws...)
}
