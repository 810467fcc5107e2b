package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kilianp07/factorysim/core/factory"
	"github.com/kilianp07/factorysim/core/model"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `simulation:
  tick_interval_ms: 50
  settle_delay_ms: 1000
  seed: 42
  carts:
    - {id: a, x: 10, y: 10}
    - {id: b, x: 20, y: 10, speed: 2}
dispatch:
  bulk_max: 5
  warehouses:
    - {x: 500, y: 500}
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "factory"
metrics:
  sinks:
    - type: "nop"
logging:
  backend: sqlite
status:
  backend: redis
  redis_addr: "localhost:6379"
telemetry:
  enabled: true
  topic_prefix: plant
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"tick", cfg.Simulation.TickIntervalMS, 50},
		{"settle", cfg.Simulation.SettleDelayMS, 1000},
		{"production default", cfg.Simulation.ProductionIntervalMS, 1000},
		{"seed", cfg.Simulation.Seed, int64(42)},
		{"carts", len(cfg.Simulation.Carts), 2},
		{"bulk_max", cfg.Dispatch.BulkMax, 5},
		{"grid_max", cfg.Dispatch.GridMax, 1000.0},
		{"warehouse", cfg.Dispatch.Warehouses[0], model.Pos(500, 500)},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"journal backend", cfg.Logging.Backend, "sqlite"},
		{"journal path", cfg.Logging.Path, "journal.db"},
		{"status", cfg.Status.Backend, "redis"},
		{"topic prefix", cfg.Telemetry.TopicPrefix, "plant"},
		{"http", cfg.HTTP.Address, ":8080"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: got %v want %v", c.name, c.got, c.want)
		}
	}

	carts := cfg.Simulation.BuildCarts()
	if carts[0].Speed != 1 || carts[1].Speed != 2 {
		t.Fatalf("unexpected speeds %v %v", carts[0].Speed, carts[1].Speed)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"simulation":{"tick_interval_ms":100}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("K_HTTP__ADDRESS", ":9999")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Address != ":9999" {
		t.Fatalf("env override ignored: %q", cfg.HTTP.Address)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		file string
		data string
		msg  string
	}{
		{"format", "config.toml", "", "unsupported config format"},
		{"settle multiple", "a.yaml", "simulation:\n  tick_interval_ms: 300\n", "multiple"},
		{"journal backend", "b.yaml", "logging:\n  backend: csv\n", "unknown backend csv"},
		{"redis addr", "c.yaml", "status:\n  backend: redis\n", "redis_addr"},
		{"telemetry broker", "d.yaml", "telemetry:\n  enabled: true\n", "mqtt.broker"},
		{"cart off grid", "e.yaml", "simulation:\n  carts:\n    - {id: x, x: 2000, y: 0}\n", "off the grid"},
		{"duplicate cart", "f.yaml", "simulation:\n  carts:\n    - {id: x}\n    - {id: x}\n", "duplicate cart"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.msg) {
				t.Fatalf("expected error containing %q, got %v", tt.msg, err)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if len(cfg.Simulation.Carts) != 3 || cfg.Simulation.Carts[2].Position() != model.Pos(180, 100) {
		t.Fatalf("unexpected default carts %+v", cfg.Simulation.Carts)
	}
	if cfg.Metrics.Sinks[0].Type != "prometheus" {
		t.Fatalf("unexpected default sink %+v", cfg.Metrics.Sinks)
	}
	if cfg.Simulation.Engine().SettleTicks() != 20 {
		t.Fatalf("expected 20 settle ticks")
	}
}

func TestSentryConfig(t *testing.T) {
	var c SentryConfig
	if c.Enabled() || c.Env() != "simulation" {
		t.Fatalf("unexpected defaults: enabled=%v env=%s", c.Enabled(), c.Env())
	}
	c = SentryConfig{DSN: "https://k@example.invalid/1", Environment: "line-2"}
	if !c.Enabled() || c.Env() != "line-2" {
		t.Fatalf("unexpected values: enabled=%v env=%s", c.Enabled(), c.Env())
	}
}

func TestValidateMetricsSinkType(t *testing.T) {
	c := Default()
	c.Metrics.Sinks = []factory.ModuleConfig{{Type: "nop"}, {}}
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "has no type") {
		t.Fatalf("expected sink type error, got %v", err)
	}
}
