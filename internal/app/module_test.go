package app

import (
	"path/filepath"
	"testing"

	"github.com/SandroBreaker/Chat.y/internal/config"
)

func TestProvideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.Default()
	cfg.AnonKey = "anon-key"
	if err := config.Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	got, err := provideConfig(Params{ConfigPath: path})
	if err != nil {
		t.Fatal(err)
	}
	if got.AnonKey != "anon-key" || got.MediaBucket != "chat-media" {
		t.Errorf("config = %+v", got)
	}
}

func TestProvideConfigRejectsIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.Default() // no anon_key
	if err := config.Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	if _, err := provideConfig(Params{ConfigPath: path}); err == nil {
		t.Fatal("want validation error")
	}
}

func TestProvideConfigMissingFile(t *testing.T) {
	if _, err := provideConfig(Params{ConfigPath: filepath.Join(t.TempDir(), "nope.toml")}); err == nil {
		t.Fatal("want error for missing file")
	}
}
