package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeConfig drops a YAML config into a temp dir and returns its path
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ztadmin.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// TestLoadDefaults tests that a missing default config file still yields a
// valid configuration
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("an explicitly named missing file must error")
	}

	// No explicit path: defaults apply
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("failed to load defaults: %v", err)
	}
	if cfg.Controller.URL != DefaultControllerURL {
		t.Errorf("expected default controller URL, got %s", cfg.Controller.URL)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("expected sqlite backend, got %s", cfg.Store.Backend)
	}
	if cfg.Generator != DefaultGenerator {
		t.Errorf("expected default generator, got %s", cfg.Generator)
	}
}

// TestLoadFile tests YAML decoding over the defaults
func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
controller:
  url: http://localhost:9993
  token: sekrit
  timeout: 5s
data_root: /tmp/zt
store:
  backend: memory
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Controller.Token != "sekrit" {
		t.Errorf("expected token from file, got %q", cfg.Controller.Token)
	}
	if cfg.Controller.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %s", cfg.Controller.Timeout)
	}
	if cfg.DataRoot != "/tmp/zt" {
		t.Errorf("expected data root /tmp/zt, got %s", cfg.DataRoot)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("expected memory backend, got %s", cfg.Store.Backend)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log config: %+v", cfg.Log)
	}
}

// TestEnvOverrides tests that ZTADMIN_* variables beat the file
func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
controller:
  url: http://localhost:9993
  token: from-file
`)

	t.Setenv("ZTADMIN_CONTROLLER_TOKEN", "from-env")
	t.Setenv("ZTADMIN_DATA_ROOT", "/srv/zt")
	t.Setenv("ZTADMIN_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Controller.Token != "from-env" {
		t.Errorf("expected env token to win, got %q", cfg.Controller.Token)
	}
	if cfg.DataRoot != "/srv/zt" {
		t.Errorf("expected env data root, got %s", cfg.DataRoot)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected env log level, got %s", cfg.Log.Level)
	}
}

// TestAuthTokenFallback tests reading authtoken.secret from the data root
func TestAuthTokenFallback(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "authtoken.secret"), []byte("filetoken\n"), 0600); err != nil {
		t.Fatalf("failed to write token file: %v", err)
	}

	path := writeConfig(t, "data_root: "+root+"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Controller.Token != "filetoken" {
		t.Errorf("expected token from authtoken.secret, got %q", cfg.Controller.Token)
	}
}

// TestValidateRejects tests struct-tag validation
func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad store backend", func(c *Config) { c.Store.Backend = "postgres" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"empty data root", func(c *Config) { c.DataRoot = "" }},
		{"bad controller url", func(c *Config) { c.Controller.URL = "not a url" }},
		{"bad sampling rate", func(c *Config) { c.Tracing.SamplingRate = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
