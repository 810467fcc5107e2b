package metrics_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/factorysim/core/factory"
	metrics "github.com/kilianp07/factorysim/core/metrics"
	_ "github.com/kilianp07/factorysim/infra/metrics"
)

func TestMetricsConfigDecodeYAML(t *testing.T) {
	data := `prometheus_addr: ":9100"
sinks:
  - type: nop
  - type: nop
`
	var cfg metrics.Config
	require.NoError(t, yaml.Unmarshal([]byte(data), &cfg))
	require.Equal(t, ":9100", cfg.PrometheusAddr)
	require.NoError(t, cfg.Validate())

	s, err := metrics.NewMetricsSink(cfg.Sinks)
	require.NoError(t, err)
	require.IsType(t, &metrics.MultiSink{}, s)
}

func TestMetricsConfigDecodeJSONUnknownSink(t *testing.T) {
	var cfg metrics.Config
	require.NoError(t, json.Unmarshal([]byte(`{"sinks":[{"type":"nop"},{"type":"missing"}]}`), &cfg))
	_, err := metrics.NewMetricsSink(cfg.Sinks)
	require.True(t, errors.Is(err, factory.ErrUnknownType), "got %v", err)
	require.Contains(t, err.Error(), "metrics sink 1 (missing)")
}

func TestMetricsConfigValidate(t *testing.T) {
	cfg := metrics.Config{Sinks: []factory.ModuleConfig{{Type: "nop"}, {}}}
	require.Error(t, cfg.Validate())
}
