package config

// LogConfig selects the logging backend. Backend "slog" writes through
// log/slog; "zap" routes hub events through a zap logger.
type LogConfig struct {
	Level   string `json:"level,omitempty" yaml:"level,omitempty" env:"AGENTCOMM_LOG_LEVEL"`
	Format  string `json:"format,omitempty" yaml:"format,omitempty" env:"AGENTCOMM_LOG_FORMAT"`
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty" env:"AGENTCOMM_LOG_BACKEND"`
}

func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:   "info",
		Format:  "text",
		Backend: "slog",
	}
}

func (c *LogConfig) Merge(source *LogConfig) {
	if source.Level != "" {
		c.Level = source.Level
	}

	if source.Format != "" {
		c.Format = source.Format
	}

	if source.Backend != "" {
		c.Backend = source.Backend
	}
}
