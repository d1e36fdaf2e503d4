package config

import (
	"log/slog"
	"time"
)

// HubConfig defines configuration for a Hub instance.
type HubConfig struct {
	// Hub identity
	Name string `json:"name,omitempty" yaml:"name,omitempty" env:"AGENTCOMM_HUB_NAME"`

	// Upper bound on draining subscriber queues during Stop.
	ShutdownTimeout Duration `json:"shutdown_timeout,omitempty" yaml:"shutdown_timeout,omitempty" env:"AGENTCOMM_HUB_SHUTDOWN_TIMEOUT"`

	// Observability
	Observer string       `json:"observer,omitempty" yaml:"observer,omitempty" env:"AGENTCOMM_HUB_OBSERVER"`
	Logger   *slog.Logger `json:"-" yaml:"-"`
}

// DefaultHubConfig returns a HubConfig with sensible defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		Name:            "default",
		ShutdownTimeout: Duration(10 * time.Second),
		Observer:        "slog",
		Logger:          slog.Default(),
	}
}

func (c *HubConfig) Merge(source *HubConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}

	if source.ShutdownTimeout > 0 {
		c.ShutdownTimeout = source.ShutdownTimeout
	}

	if source.Observer != "" {
		c.Observer = source.Observer
	}

	if source.Logger != nil {
		c.Logger = source.Logger
	}
}
