package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"peerlink/internal/platform/config"
)

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.DBPath != filepath.Join(dir, "peerlink.db") {
		t.Fatalf("unexpected db path %s", cfg.DBPath)
	}
	if cfg.API.ClientID != "s21-open-api" {
		t.Fatalf("unexpected client id %s", cfg.API.ClientID)
	}
	if cfg.Cache.TTL != 24*time.Hour {
		t.Fatalf("expected 24h ttl, got %s", cfg.Cache.TTL)
	}
	if !cfg.Transport.RelayEnabled || cfg.Transport.RelayURL != config.DefaultRelayURL {
		t.Fatalf("expected default relay enabled, got %+v", cfg.Transport)
	}
}

func TestNewRequiresStateDir(t *testing.T) {
	t.Parallel()
	if _, err := config.New(""); err == nil {
		t.Fatalf("expected error for empty state dir")
	}
}

func TestNewReadsYAMLFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	yml := `
api:
  base_url: https://api.example.test/v1
transport:
  relay_enabled: false
  attempt_timeout: 2s
cache:
  backend: redis
  redis_addr: cache.local:6379
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.API.BaseURL != "https://api.example.test/v1" {
		t.Fatalf("base url not read from file: %s", cfg.API.BaseURL)
	}
	if cfg.API.AuthURL != config.DefaultAuthURL {
		t.Fatalf("unset keys must keep defaults, got %s", cfg.API.AuthURL)
	}
	if cfg.Transport.RelayEnabled || cfg.Transport.AttemptTimeout != 2*time.Second {
		t.Fatalf("transport not read from file: %+v", cfg.Transport)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "cache.local:6379" {
		t.Fatalf("cache not read from file: %+v", cfg.Cache)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: warn\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PEERLINK_LOG_LEVEL", "debug")
	t.Setenv("PEERLINK_ATTEMPT_TIMEOUT", "750ms")
	t.Setenv("PEERLINK_CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected env level to win, got %s", cfg.Log.Level)
	}
	if cfg.Transport.AttemptTimeout != 750*time.Millisecond {
		t.Fatalf("unexpected timeout %s", cfg.Transport.AttemptTimeout)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.Server.CORSOrigins)
	}
}

func TestInvalidEnvironmentValueFails(t *testing.T) {
	t.Setenv("PEERLINK_RELAY_ENABLED", "maybe")
	if _, err := config.New(t.TempDir()); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidateRejectsUnknownCacheBackend(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("cache:\n  backend: memcached\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.New(dir); err == nil {
		t.Fatalf("expected validation error")
	}
}
