package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ConfigPath returns the path to the config file (~/.flowrelay/config.toml).
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// LoadFile decodes the TOML file at path onto cfg.
// Keys absent from the file keep their current values; a missing file is not an error.
func LoadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	_, err := toml.DecodeFile(path, cfg)
	return err
}

// EnsureConfigFile creates a default config file with commented examples if none exists.
func EnsureConfigFile() error {
	path := ConfigPath()

	// If config already exists, do nothing
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	// Ensure directory exists
	if err := EnsureDataDir(); err != nil {
		return err
	}

	defaultConfig := `# flowrelay configuration
# server_port = ":8080"
# enable_web_ui = true

# Flow API root and the flow to run. The API key is never read from this
# file; set LANGFLOW_API_KEY in the environment or a .env file.
# upstream_base_url = "https://api.langflow.astra.datastax.com/lf/<org-id>/api/v1"
# flow_id = "<flow-id>"

# Bounds on upstream waits
# upstream_timeout = "9s"
# stream_idle_timeout = "60s"

# log_level = "info"
# log_format = "text"
# token_encoding = "cl100k_base"
`

	return os.WriteFile(path, []byte(defaultConfig), 0644)
}
