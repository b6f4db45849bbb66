package config

import (
	"os"
	"path/filepath"
)

// Dir returns the app directory (~/.chaty), honoring CHATY_HOME for tests.
func Dir() string {
	if override := os.Getenv("CHATY_HOME"); override != "" {
		return override
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chaty"
	}
	return filepath.Join(home, ".chaty")
}

// Path returns the config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// LogPath returns the log file path.
func LogPath() string {
	return filepath.Join(Dir(), "chaty.log")
}

// EnsureDir creates the app directory if missing.
func EnsureDir() error {
	return os.MkdirAll(Dir(), 0700)
}
