package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

//go:embed starter.json
var StarterSnapshotJSON []byte

type Config struct {
	Snapshot Snapshot `yaml:"snapshot"`
	Refresh  Refresh  `yaml:"refresh"`
	Output   Output   `yaml:"output"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
}

type Snapshot struct {
	Path string `yaml:"path"`
}

type Refresh struct {
	// Concurrency caps simultaneous feed fetches; 0 fetches every feed at once.
	Concurrency    int    `yaml:"concurrency"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	UserAgent      string `yaml:"user_agent"`
	// Schedule is a cron spec used by `serve` to refresh periodically.
	Schedule string `yaml:"schedule"`
}

type Output struct {
	DataDir     string `yaml:"data_dir"`
	HistoryRuns int    `yaml:"history_runs"`
}

type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type Logging struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// ConfigDir returns the XDG config directory for feedboard.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "feedboard")
}

// DataDir returns the XDG data directory for feedboard.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "feedboard")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/feedboard/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'feedboard init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file, then applies environment
// overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

// Default returns the built-in settings with environment overrides applied.
// Used when no config file exists.
func Default() *Config {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default config: %v", err))
	}
	applyEnv(cfg)
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Snapshot: Snapshot{Path: filepath.Join("config", "config.json")},
		Refresh: Refresh{
			TimeoutSeconds: 20,
			UserAgent:      "feedboard/1.0 (feed aggregator)",
		},
		Output:  Output{HistoryRuns: 200},
		Server:  Server{Host: "127.0.0.1", Port: 8000},
		Logging: Logging{Level: "info"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Refresh.Concurrency < 0 {
		return nil, fmt.Errorf("refresh.concurrency must be >= 0, got %d", cfg.Refresh.Concurrency)
	}
	if cfg.Refresh.TimeoutSeconds < 0 {
		return nil, fmt.Errorf("refresh.timeout_seconds must be >= 0, got %d", cfg.Refresh.TimeoutSeconds)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FEEDBOARD_SNAPSHOT"); v != "" {
		cfg.Snapshot.Path = v
	}
	if v := os.Getenv("FEEDBOARD_DATA_DIR"); v != "" {
		cfg.Output.DataDir = v
	}
	if v := os.Getenv("FEEDBOARD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// FetchTimeout returns the per-feed HTTP timeout; zero means none.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Refresh.TimeoutSeconds) * time.Second
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
