package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: "9090"
redis:
  addr: localhost:6379
  ttl: 15m
transition:
  enabled: false
  min_delay: 1s
  max_delay: 2s
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ONBOARDING_REDIS_ADDR", "redis:6380")
	t.Setenv("ONBOARDING_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port from yaml, got %q", cfg.Server.Port)
	}
	if cfg.Redis.Addr != "redis:6380" {
		t.Fatalf("expected env override for redis addr, got %q", cfg.Redis.Addr)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected env log level, got %q", cfg.Log.Level)
	}
	if cfg.TransitionEnabled() {
		t.Fatalf("expected transition disabled from yaml")
	}
	if got := TTLDuration(cfg.Redis.TTL, time.Minute); got != 15*time.Minute {
		t.Fatalf("expected 15m ttl, got %s", got)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.TransitionEnabled() {
		t.Fatalf("expected transition enabled by default")
	}
	if cfg.Postgres.URL != "" {
		t.Fatalf("expected empty postgres url, got %q", cfg.Postgres.URL)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for empty, got %s", got)
	}
	if got := TTLDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for garbage, got %s", got)
	}
}
