package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// dataDirName is the per-user directory holding config.toml. The relay keeps
// no other state on disk.
const dataDirName = "flowrelay"

// DataDir returns the directory that holds config.toml:
// %APPDATA%\flowrelay on Windows, ~/.flowrelay elsewhere, and ./.flowrelay
// when no home directory can be resolved.
func DataDir() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, dataDirName)
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "." + dataDirName
	}
	return filepath.Join(home, "."+dataDirName)
}

// EnsureDataDir creates the config directory with owner-only permissions.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0700)
}
