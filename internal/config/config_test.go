package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.Snapshot.Path != "config/config.json" {
		t.Errorf("expected snapshot path 'config/config.json', got %q", cfg.Snapshot.Path)
	}
	if cfg.Refresh.Concurrency != 0 {
		t.Errorf("expected unbounded concurrency, got %d", cfg.Refresh.Concurrency)
	}
	if cfg.FetchTimeout() != 20*time.Second {
		t.Errorf("expected 20s timeout, got %v", cfg.FetchTimeout())
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
	if cfg.Output.HistoryRuns != 200 {
		t.Errorf("expected 200 history runs, got %d", cfg.Output.HistoryRuns)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
snapshot:
  path: /srv/news/config.json
refresh:
  concurrency: 4
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Snapshot.Path != "/srv/news/config.json" {
		t.Errorf("unexpected snapshot path %q", cfg.Snapshot.Path)
	}
	if cfg.Refresh.Concurrency != 4 {
		t.Errorf("expected concurrency 4, got %d", cfg.Refresh.Concurrency)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Refresh.UserAgent == "" {
		t.Error("expected default user agent")
	}
	if cfg.Addr() != "127.0.0.1:9000" {
		t.Errorf("expected addr 127.0.0.1:9000, got %q", cfg.Addr())
	}
}

func TestParseRejectsNegativeValues(t *testing.T) {
	if _, err := parse([]byte("refresh:\n  concurrency: -1\n")); err == nil {
		t.Error("expected error for negative concurrency")
	}
	if _, err := parse([]byte("refresh:\n  timeout_seconds: -5\n")); err == nil {
		t.Error("expected error for negative timeout")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Snapshot.Path == "" {
		t.Error("expected snapshot path to be populated from file")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, DefaultConfigYAML, 0o644)

	t.Setenv("FEEDBOARD_SNAPSHOT", "/tmp/override.json")
	t.Setenv("FEEDBOARD_DATA_DIR", "/tmp/data")
	t.Setenv("FEEDBOARD_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Snapshot.Path != "/tmp/override.json" {
		t.Errorf("expected env snapshot path, got %q", cfg.Snapshot.Path)
	}
	if cfg.GetDataDir() != "/tmp/data" {
		t.Errorf("expected env data dir, got %q", cfg.GetDataDir())
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected env log level, got %q", cfg.Logging.Level)
	}
}

func TestResolveConfigPathExplicit(t *testing.T) {
	if _, err := ResolveConfigPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit path")
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, DefaultConfigYAML, 0o644)
	got, err := ResolveConfigPath(path)
	if err != nil || got != path {
		t.Errorf("expected %q, got %q (%v)", path, got, err)
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
}

func TestStarterSnapshotIsValidJSON(t *testing.T) {
	var doc map[string]any
	if err := json.Unmarshal(StarterSnapshotJSON, &doc); err != nil {
		t.Fatalf("starter snapshot is not valid JSON: %v", err)
	}
	if _, ok := doc["sources"]; !ok {
		t.Error("expected starter snapshot to define sources")
	}
}

func TestDefaultAppliesEnv(t *testing.T) {
	t.Setenv("FEEDBOARD_SNAPSHOT", "/srv/site/config.json")
	cfg := Default()
	if cfg.Snapshot.Path != "/srv/site/config.json" {
		t.Errorf("expected env snapshot path, got %s", cfg.Snapshot.Path)
	}
	if cfg.Refresh.TimeoutSeconds != 20 {
		t.Errorf("expected default timeout 20, got %d", cfg.Refresh.TimeoutSeconds)
	}
}
