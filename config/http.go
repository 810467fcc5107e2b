package config

import "fmt"

// HTTPConfig configures the REST and websocket API.
type HTTPConfig struct {
	Address string `json:"address"`
	// Token protects the journal endpoint. Empty disables the endpoint.
	Token string `json:"token"`
	// StreamEveryTicks sends one websocket frame every n snapshots.
	StreamEveryTicks int `json:"stream_every_ticks"`
}

func (c *HTTPConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.StreamEveryTicks <= 0 {
		c.StreamEveryTicks = 1
	}
}

// StatusConfig selects where cart statuses are mirrored.
type StatusConfig struct {
	Backend   string `json:"backend"`
	RedisAddr string `json:"redis_addr"`
}

func (c *StatusConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
}

func (c StatusConfig) Validate() error {
	switch c.Backend {
	case "memory":
		return nil
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("status: redis_addr is required for the redis backend")
		}
		return nil
	default:
		return fmt.Errorf("status: unknown backend %s", c.Backend)
	}
}
