package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents ~/.chaty/config.toml.
type Config struct {
	// PlatformURL is the base URL of the hosted backend platform.
	PlatformURL string `toml:"platform_url"`
	// AnonKey is the public API key sent with every platform request.
	AnonKey string `toml:"anon_key"`
	// MediaBucket is the blob storage bucket for image/audio attachments.
	MediaBucket string `toml:"media_bucket"`

	// TypingIdleMs is the idle window after the last keystroke before a
	// typing=false signal is broadcast.
	TypingIdleMs int `toml:"typing_idle_ms"`
	// NudgeEffectMs is how long the nudge screen emphasis stays on.
	NudgeEffectMs int `toml:"nudge_effect_ms"`
	// AlwaysNotify raises system notifications even while the chat with
	// the sender is on screen.
	AlwaysNotify bool `toml:"always_notify"`
	// Mute disables notification sounds.
	Mute bool `toml:"mute"`
}

// Default returns the config used when no file exists yet.
func Default() *Config {
	return &Config{
		PlatformURL:   "https://chaty.example.com",
		MediaBucket:   "chat-media",
		TypingIdleMs:  2000,
		NudgeEffectMs: 1500,
	}
}

// TypingIdle returns the typing idle window as a duration.
func (c *Config) TypingIdle() time.Duration {
	if c.TypingIdleMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.TypingIdleMs) * time.Millisecond
}

// NudgeEffect returns the nudge emphasis duration.
func (c *Config) NudgeEffect() time.Duration {
	if c.NudgeEffectMs <= 0 {
		return 1500 * time.Millisecond
	}
	return time.Duration(c.NudgeEffectMs) * time.Millisecond
}

// Validate checks the fields every platform call depends on.
func (c *Config) Validate() error {
	if c.PlatformURL == "" {
		return fmt.Errorf("platform_url is required")
	}
	if c.AnonKey == "" {
		return fmt.Errorf("anon_key is required")
	}
	return nil
}

// Load reads config from the given path. Returns an error if the file is missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
