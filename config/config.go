package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/agentcomm/archive"
)

// Config holds initialization parameters for every agentcomm subsystem.
type Config struct {
	Hub     HubConfig      `json:"hub" yaml:"hub"`
	Server  ServerConfig   `json:"server" yaml:"server"`
	Log     LogConfig      `json:"log" yaml:"log"`
	Archive archive.Config `json:"archive" yaml:"archive"`
}

// DefaultConfig returns a Config with defaults for all subsystems. The
// archive is disabled by default.
func DefaultConfig() Config {
	return Config{
		Hub:     DefaultHubConfig(),
		Server:  DefaultServerConfig(),
		Log:     DefaultLogConfig(),
		Archive: archive.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Hub.Merge(&source.Hub)
	c.Server.Merge(&source.Server)
	c.Log.Merge(&source.Log)
	c.Archive.Merge(&source.Archive)
}

// LoadConfig merges the file at filename (when non-empty) over the
// defaults, then applies AGENTCOMM_* environment overrides.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	if filename != "" {
		loaded, err := readFile(filename)
		if err != nil {
			return nil, err
		}
		cfg.Merge(loaded)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyEnv overrides cfg with any AGENTCOMM_* variables that are set.
func ApplyEnv(cfg *Config) error {
	var overrides Config
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	// Loggers are wired at runtime only.
	overrides.Hub.Logger = nil

	cfg.Merge(&overrides)
	return nil
}

func readFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".json":
		err = json.Unmarshal(data, &loaded)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	default:
		return nil, fmt.Errorf("unsupported config format: %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &loaded, nil
}
