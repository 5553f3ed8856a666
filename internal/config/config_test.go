package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadRequiresAuthorityURL(t *testing.T) {
	t.Setenv("AUTHORITY_BASE_URL", "")
	t.Setenv("CONFIG_PATH", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without AUTHORITY_BASE_URL")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTHORITY_BASE_URL", "http://hr.example.com")
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sensor.Timeout != 8*time.Second {
		t.Fatalf("sensor timeout = %v, want 8s", cfg.Sensor.Timeout)
	}
	if cfg.Store.Backend != "memory" {
		t.Fatalf("backend = %q, want memory", cfg.Store.Backend)
	}
	if cfg.Server.Addr != ":8090" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
authority:
  base_url: http://yaml.example.com
sensor:
  timeout_seconds: 3
store:
  backend: redis
  redis_url: redis://localhost:6379
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("AUTHORITY_BASE_URL", "http://env.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Authority.BaseURL != "http://env.example.com" {
		t.Fatalf("env must win over yaml, got %q", cfg.Authority.BaseURL)
	}
	if cfg.Sensor.Timeout != 3*time.Second {
		t.Fatalf("yaml sensor timeout not applied: %v", cfg.Sensor.Timeout)
	}
	if cfg.Store.Backend != "redis" {
		t.Fatalf("backend = %q", cfg.Store.Backend)
	}
}

func TestMissingBackendDSNFails(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("AUTHORITY_BASE_URL", "http://hr.example.com")
	t.Setenv("STORE_BACKEND", "mysql")
	t.Setenv("MYSQL_DSN", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for mysql backend without DSN")
	}
}
