package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config holds application configuration loaded from flags, environment and file.
// Priority: CLI flags → Env vars → config.toml → defaults
type Config struct {
	// ServerPort is the address to bind the server to (e.g., ":8080")
	ServerPort string `toml:"server_port" env:"SERVER_PORT"`

	// EnableWebUI serves the embedded chat page at /
	EnableWebUI bool `toml:"enable_web_ui" env:"ENABLE_WEB_UI"`

	// UpstreamBaseURL is the flow API root, e.g. https://host/lf/<org>/api/v1
	UpstreamBaseURL string `toml:"upstream_base_url" env:"LANGFLOW_BASE_URL"`

	// FlowID selects the flow executed by the relay
	FlowID string `toml:"flow_id" env:"LANGFLOW_FLOW_ID"`

	// APIKey is the upstream bearer credential. It is read from the
	// environment or a flag only and is never logged.
	APIKey string `toml:"-" env:"LANGFLOW_API_KEY"`

	// UpstreamTimeout bounds run and bootstrap calls
	UpstreamTimeout time.Duration `toml:"upstream_timeout" env:"UPSTREAM_TIMEOUT"`

	// StreamIdleTimeout ends a relayed stream after this long without data
	StreamIdleTimeout time.Duration `toml:"stream_idle_timeout" env:"STREAM_IDLE_TIMEOUT"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `toml:"log_level" env:"LOG_LEVEL"`

	// LogFormat is text or json
	LogFormat string `toml:"log_format" env:"LOG_FORMAT"`

	// TokenEncoding names the tiktoken encoding used for input token estimates
	TokenEncoding string `toml:"token_encoding" env:"TOKEN_ENCODING"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ServerPort:        ":8080",
		EnableWebUI:       true,
		UpstreamBaseURL:   "http://127.0.0.1:7860/api/v1",
		UpstreamTimeout:   9 * time.Second,
		StreamIdleTimeout: 60 * time.Second,
		LogLevel:          "info",
		LogFormat:         "text",
		TokenEncoding:     "cl100k_base",
	}
}

// Load reads configuration from the default config file, a .env file in the
// working directory, environment variables and args, in increasing priority.
func Load(args []string) (*Config, error) {
	return LoadFrom(ConfigPath(), args)
}

// LoadFrom is Load with an explicit config file path.
// It returns pflag.ErrHelp when args ask for usage.
func LoadFrom(path string, args []string) (*Config, error) {
	cfg := Default()

	if err := LoadFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	// .env is optional; existing environment variables win over it
	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewFlagSet returns the command-line flags bound to cfg. Defaults shown in
// usage are the values already loaded, except for the credential.
func NewFlagSet(cfg *Config) (*pflag.FlagSet, *string) {
	fs := pflag.NewFlagSet("flowrelay", pflag.ContinueOnError)
	fs.StringVarP(&cfg.ServerPort, "port", "p", cfg.ServerPort, "address to listen on")
	fs.BoolVar(&cfg.EnableWebUI, "web-ui", cfg.EnableWebUI, "serve the embedded chat page")
	fs.StringVar(&cfg.UpstreamBaseURL, "upstream", cfg.UpstreamBaseURL, "flow API base URL")
	fs.StringVar(&cfg.FlowID, "flow-id", cfg.FlowID, "flow to run")
	fs.DurationVar(&cfg.UpstreamTimeout, "upstream-timeout", cfg.UpstreamTimeout, "bound on run and bootstrap calls")
	fs.DurationVar(&cfg.StreamIdleTimeout, "stream-idle-timeout", cfg.StreamIdleTimeout, "end a relayed stream after this long without data")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json")
	fs.StringVar(&cfg.TokenEncoding, "token-encoding", cfg.TokenEncoding, "tiktoken encoding for input token estimates")

	// The credential default is never printed
	apiKey := fs.String("api-key", "", "upstream API key (prefer LANGFLOW_API_KEY)")
	return fs, apiKey
}

func parseFlags(cfg *Config, args []string) error {
	fs, apiKey := NewFlagSet(cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.Changed("api-key") {
		cfg.APIKey = *apiKey
	}
	return nil
}

// Validate checks settings the server cannot start without.
// An empty credential is allowed here; the relay reports it per request.
func (c *Config) Validate() error {
	var errs []error

	if c.ServerPort == "" {
		errs = append(errs, errors.New("server_port is required"))
	}
	if c.UpstreamBaseURL == "" {
		errs = append(errs, errors.New("upstream_base_url is required"))
	} else if u, err := url.Parse(c.UpstreamBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("upstream_base_url %q is not an http(s) URL", c.UpstreamBaseURL))
	}
	if c.FlowID == "" {
		errs = append(errs, errors.New("flow_id is required (LANGFLOW_FLOW_ID)"))
	}
	if c.UpstreamTimeout <= 0 {
		errs = append(errs, errors.New("upstream_timeout must be positive"))
	}
	if c.StreamIdleTimeout <= 0 {
		errs = append(errs, errors.New("stream_idle_timeout must be positive"))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q must be text or json", c.LogFormat))
	}

	return errors.Join(errs...)
}

// HasCredential reports whether the upstream credential is set.
func (c *Config) HasCredential() bool {
	return c.APIKey != ""
}
