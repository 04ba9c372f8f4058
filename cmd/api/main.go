package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/mandalnilabja/flowrelay/internal/app"
	"github.com/mandalnilabja/flowrelay/internal/config"
	"github.com/mandalnilabja/flowrelay/internal/provider/langflow"
	"github.com/mandalnilabja/flowrelay/internal/relay"
	"github.com/mandalnilabja/flowrelay/internal/tokenizer"
	"github.com/mandalnilabja/flowrelay/internal/transport/http/handler"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "flowrelay: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := setupLogger(cfg)

	if err := config.EnsureConfigFile(); err != nil {
		logger.Warn("could not create default config file", "path", config.ConfigPath(), "error", err)
	}

	upstream := langflow.New(langflow.Config{
		BaseURL: cfg.UpstreamBaseURL,
		FlowID:  cfg.FlowID,
		APIKey:  cfg.APIKey,
	}, langflow.NewHTTPClient())

	if !cfg.HasCredential() {
		logger.Warn("no upstream credential configured; relay requests will fail until LANGFLOW_API_KEY is set")
	}

	rl := relay.New(upstream, relay.Options{
		UpstreamTimeout:   cfg.UpstreamTimeout,
		StreamIdleTimeout: cfg.StreamIdleTimeout,
		Logger:            logger,
	})
	tok := tokenizer.New(cfg.TokenEncoding)
	logger.Debug("input token estimates enabled", "encoding", tok.Encoding())

	repo := handler.NewRepo(rl, tok, upstream, logger)
	router := app.NewRouter(repo, &app.RouterOptions{
		EnableWebUI: cfg.EnableWebUI,
		Logger:      logger,
	})
	srv := app.NewServer(cfg, router, logger)

	printStartupBanner(cfg, upstream.Host())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
