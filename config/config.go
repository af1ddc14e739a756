// Package config loads and saves the user configuration and the workload
// profile presets.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Config holds user-configurable defaults.
type Config struct {
	IntervalMS    int              `json:"interval_ms"`
	BufferSize    int              `json:"buffer_size"`
	WindowSec     int              `json:"window_seconds"`
	SeverityFloor int              `json:"severity_floor"`
	Profile       string           `json:"profile"`
	ProfilesDir   string           `json:"profiles_dir,omitempty"`
	Prometheus    PrometheusConfig `json:"prometheus"`
}

type PrometheusConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// Default returns a config with sensible defaults.
func Default() Config {
	return Config{
		IntervalMS:    1000,
		BufferSize:    600,
		WindowSec:     60,
		SeverityFloor: 20,
		Prometheus: PrometheusConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9321",
		},
	}
}

// Path returns ~/.config/perflens/config.json (or XDG_CONFIG_HOME).
// Returns empty string if home directory cannot be determined.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "" // refuse to fall back to /tmp (security risk)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "perflens", "config.json")
}

// Load loads config from disk; returns defaults on error.
func Load() Config {
	cfg := Default()
	p := Path()
	if p == "" {
		return cfg
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Printf("perflens: warning: config parse error: %v", err)
	}
	return cfg
}

// Save writes the config to disk.
func Save(cfg Config) error {
	path := Path()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
