package config

import (
	"fmt"
	"slices"

	"github.com/kilianp07/factorysim/core/journal"
)

// LoggingConfig selects the delivery journal backend and its rotation.
type LoggingConfig struct {
	// Backend is one of journal.Backends(): jsonl, rotating or sqlite.
	Backend    string `json:"backend"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
	// Disabled turns the journal off.
	Disabled bool `json:"disabled"`
}

// Journal converts the section into journal settings with defaults applied.
func (c LoggingConfig) Journal() journal.Config {
	jc := journal.Config{
		Backend:    c.Backend,
		Path:       c.Path,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
	}
	jc.SetDefaults()
	return jc
}

func (c *LoggingConfig) SetDefaults() {
	jc := c.Journal()
	c.Backend, c.Path = jc.Backend, jc.Path
	c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays = jc.MaxSizeMB, jc.MaxBackups, jc.MaxAgeDays
}

// Validate checks the backend is registered.
func (c LoggingConfig) Validate() error {
	if c.Disabled {
		return nil
	}
	if !slices.Contains(journal.Backends(), c.Backend) {
		return fmt.Errorf("logging: unknown backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("logging: path is required")
	}
	return nil
}
