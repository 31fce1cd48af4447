package httpserver

import "time"

// Config defines server settings.
type Config struct {
	Enabled         bool          `yaml:"enabled" json:"enabled"`
	Address         string        `yaml:"address" json:"address"`                   // e.g. ":8080"
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`         // whole request, headers + body
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`       // a run request can take minutes
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout"`         // keep-alive
	GracefulTimeout time.Duration `yaml:"graceful_timeout" json:"graceful_timeout"` // in-flight requests on shutdown
	// Tracing names the otelchi server spans; empty disables request tracing.
	Tracing string `yaml:"-" json:"-"`
}

func (c *Config) applyDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.GracefulTimeout <= 0 {
		c.GracefulTimeout = 10 * time.Second
	}
}
