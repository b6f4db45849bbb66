package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.PlatformURL = "https://backend.test"
	cfg.AnonKey = "anon-123"
	cfg.TypingIdleMs = 500

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.PlatformURL != "https://backend.test" {
		t.Errorf("platform_url = %q", loaded.PlatformURL)
	}
	if loaded.AnonKey != "anon-123" {
		t.Errorf("anon_key = %q", loaded.AnonKey)
	}
	if got := loaded.TypingIdle(); got != 500*time.Millisecond {
		t.Errorf("typing idle = %v, want 500ms", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestDefaultsBackstopZeroValues(t *testing.T) {
	cfg := &Config{}
	if cfg.TypingIdle() != 2*time.Second {
		t.Errorf("typing idle default = %v", cfg.TypingIdle())
	}
	if cfg.NudgeEffect() != 1500*time.Millisecond {
		t.Errorf("nudge effect default = %v", cfg.NudgeEffect())
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error without anon_key")
	}
	cfg.AnonKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestDirOverride(t *testing.T) {
	t.Setenv("CHATY_HOME", "/tmp/chaty-test")
	if Dir() != "/tmp/chaty-test" {
		t.Errorf("Dir() = %q", Dir())
	}
}
