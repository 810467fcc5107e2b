package config

// SentryConfig enables error reporting to Sentry. An empty DSN keeps the
// logging monitor. Tags are attached to every captured event.
type SentryConfig struct {
	DSN              string            `json:"dsn"`
	Environment      string            `json:"environment"`
	TracesSampleRate float64           `json:"traces_sample_rate"`
	Release          string            `json:"release"`
	Tags             map[string]string `json:"tags"`
}

func (c SentryConfig) Enabled() bool { return c.DSN != "" }

// Env falls back to "simulation" when no environment is set.
func (c SentryConfig) Env() string {
	if c.Environment == "" {
		return "simulation"
	}
	return c.Environment
}
