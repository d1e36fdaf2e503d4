package config

import "time"

// ServerConfig configures the HTTP listener that exposes the hub.
type ServerConfig struct {
	Addr              string   `json:"addr,omitempty" yaml:"addr,omitempty" env:"AGENTCOMM_SERVER_ADDR"`
	ReadHeaderTimeout Duration `json:"read_header_timeout,omitempty" yaml:"read_header_timeout,omitempty" env:"AGENTCOMM_SERVER_READ_HEADER_TIMEOUT"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:              ":8420",
		ReadHeaderTimeout: Duration(5 * time.Second),
	}
}

func (c *ServerConfig) Merge(source *ServerConfig) {
	if source.Addr != "" {
		c.Addr = source.Addr
	}

	if source.ReadHeaderTimeout > 0 {
		c.ReadHeaderTimeout = source.ReadHeaderTimeout
	}
}
