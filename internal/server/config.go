package server

import (
	"time"
)

// Config holds the server configuration.
type Config struct {
	Host              string        `env:"HOST"` // default: "127.0.0.1"
	Port              int           `env:"PORT"` // default: 8000
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT"`
	AllowedOrigins    []string      `env:"ALLOWED_ORIGINS" envSeparator:","` // default: ["http://localhost:3000"]
	TriggerInterval   time.Duration `env:"TRIGGER_INTERVAL"`                 // default: 2s
	TriggerBurst      int           `env:"TRIGGER_BURST"`                    // default: 5
}

func (c *Config) host() string {
	h := c.Host
	if h == "" {
		h = "127.0.0.1"
	}
	return h
}

func (c *Config) port() int {
	p := c.Port
	if p == 0 {
		p = 8000
	}
	return p
}

func (c *Config) allowedOrigins() []string {
	if len(c.AllowedOrigins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return c.AllowedOrigins
}

func (c *Config) triggerInterval() time.Duration {
	if c.TriggerInterval == 0 {
		return 2 * time.Second
	}
	return c.TriggerInterval
}

func (c *Config) triggerBurst() int {
	if c.TriggerBurst == 0 {
		return 5
	}
	return c.TriggerBurst
}
