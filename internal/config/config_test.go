package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SB_USERNAME", "user@example.com")
	t.Setenv("SB_PASSWORD", "hunter2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.StateURL != "https://www.saltybet.com/state.json" {
		t.Errorf("StateURL = %q", cfg.StateURL)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %s, want 5s", cfg.PollInterval)
	}
	if cfg.DBPath != "saltbet.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
}

func TestLoadRequiresCredentials(t *testing.T) {
	t.Setenv("SB_USERNAME", "")
	t.Setenv("SB_PASSWORD", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail without credentials")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SB_USERNAME", "user@example.com")
	t.Setenv("SB_PASSWORD", "hunter2")
	t.Setenv("SB_POLL_INTERVAL", "250ms")
	t.Setenv("SB_STATE_URL", "http://localhost:9999/state.json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval = %s, want 250ms", cfg.PollInterval)
	}
	if cfg.StateURL != "http://localhost:9999/state.json" {
		t.Errorf("StateURL = %q", cfg.StateURL)
	}
}
