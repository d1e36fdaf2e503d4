package archive

import (
	"context"
	"fmt"
)

// Archive backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds archive initialization parameters. An empty Backend
// disables the archive.
type Config struct {
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty" env:"AGENTCOMM_ARCHIVE_BACKEND"`

	// File root or SQLite database.
	Path string `json:"path,omitempty" yaml:"path,omitempty" env:"AGENTCOMM_ARCHIVE_PATH"`

	// Redis host:port or URL, and the key namespace.
	Addr   string `json:"addr,omitempty" yaml:"addr,omitempty" env:"AGENTCOMM_ARCHIVE_ADDR"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty" env:"AGENTCOMM_ARCHIVE_PREFIX"`
}

// DefaultConfig returns the default archive configuration (disabled).
func DefaultConfig() Config {
	return Config{
		Prefix: "agentcomm:",
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Backend != "" {
		c.Backend = source.Backend
	}
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.Addr != "" {
		c.Addr = source.Addr
	}
	if source.Prefix != "" {
		c.Prefix = source.Prefix
	}
}

// NewStore creates a Store from configuration. Returns a nil Store when
// Backend is empty, indicating the archive is disabled.
func NewStore(ctx context.Context, cfg *Config) (Store, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case BackendFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("file archive requires a path")
		}
		return NewFileStore(cfg.Path), nil
	case BackendSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite archive requires a path")
		}
		return NewSQLiteStore(ctx, cfg.Path)
	case BackendRedis:
		if cfg.Addr == "" {
			return nil, fmt.Errorf("redis archive requires an addr")
		}
		return NewRedisStore(ctx, cfg.Addr, cfg.Prefix)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
