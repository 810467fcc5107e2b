package config

import "fmt"

// TelemetryConfig controls the MQTT cart bridge.
type TelemetryConfig struct {
	Enabled bool `json:"enabled"`
	// TopicPrefix roots every cart topic: <prefix>/cart/<id>/{state,command,ack}.
	TopicPrefix string `json:"topic_prefix"`
	// IntervalTicks publishes cart state every n ticks.
	IntervalTicks  int `json:"interval_ticks"`
	TimeoutSeconds int `json:"timeout_seconds"`
}

// SetDefaults applies the bridge defaults.
func (c *TelemetryConfig) SetDefaults() {
	if c.TopicPrefix == "" {
		c.TopicPrefix = "factory"
	}
	if c.IntervalTicks <= 0 {
		c.IntervalTicks = 10
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 3
	}
}

// Validate checks the prefix is usable as a topic root.
func (c TelemetryConfig) Validate() error {
	for _, r := range c.TopicPrefix {
		if r == '+' || r == '#' {
			return fmt.Errorf("telemetry: topic_prefix %q contains a wildcard", c.TopicPrefix)
		}
	}
	return nil
}

// Timeout is the deadline for one command.
func (c TelemetryConfig) Timeout() int {
	if c.TimeoutSeconds <= 0 {
		return 3
	}
	return c.TimeoutSeconds
}
