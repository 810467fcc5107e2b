package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/factorysim/core/dispatch"
	"github.com/kilianp07/factorysim/core/factory"
	"github.com/kilianp07/factorysim/core/metrics"
	"github.com/kilianp07/factorysim/infra/mqtt"
)

type Config struct {
	Simulation SimulationConfig `json:"simulation"`
	Dispatch   dispatch.Config  `json:"dispatch"`
	Metrics    metrics.Config   `json:"metrics"`
	Logging    LoggingConfig    `json:"logging"`
	HTTP       HTTPConfig       `json:"http"`
	Status     StatusConfig     `json:"status"`
	MQTT       mqtt.Config      `json:"mqtt"`
	Telemetry  TelemetryConfig  `json:"telemetry"`
	Sentry     SentryConfig     `json:"sentry"`
}

// Default returns a validated configuration for runs without a file.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// Load reads a YAML or JSON file and applies K_ prefixed environment
// overrides, e.g. K_SIMULATION__TICK_INTERVAL_MS=50. An empty path reads the
// environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section. The simulation grid bounds are copied
// into the dispatch section when the latter leaves them unset.
func (c *Config) SetDefaults() {
	c.Simulation.SetDefaults()
	if c.Dispatch.GridMax == 0 {
		c.Dispatch.GridMin = c.Simulation.GridMin
		c.Dispatch.GridMax = c.Simulation.GridMax
	}
	c.Dispatch.SetDefaults()
	if len(c.Metrics.Sinks) == 0 {
		c.Metrics.Sinks = []factory.ModuleConfig{{Type: "prometheus"}}
	}
	c.Logging.SetDefaults()
	c.HTTP.SetDefaults()
	c.Status.SetDefaults()
	c.Telemetry.SetDefaults()
}

// Validate checks every section and joins the failures.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Simulation.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Dispatch.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Status.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Metrics.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Telemetry.Enabled && c.MQTT.Broker == "" {
		errs = append(errs, errors.New("telemetry: mqtt.broker is required when enabled"))
	}
	for _, cart := range c.Simulation.Carts {
		p := cart.Position()
		if !p.InBounds(c.Dispatch.GridMin, c.Dispatch.GridMax) {
			errs = append(errs, fmt.Errorf("simulation: cart %s starts off the grid at %v", cart.ID, p))
		}
	}
	return errors.Join(errs...)
}
