package metrics

import (
	"errors"
	"fmt"

	"github.com/kilianp07/factorysim/core/factory"
)

// Config lists the metrics sinks to build. PrometheusAddr exposes /metrics
// when not empty.
type Config struct {
	Sinks          []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	PrometheusAddr string                 `json:"prometheus_addr" yaml:"prometheus_addr"`
}

// Validate rejects sinks without a type.
func (c Config) Validate() error {
	var errs []error
	for i, s := range c.Sinks {
		if s.Type == "" {
			errs = append(errs, fmt.Errorf("metrics: sink %d has no type", i))
		}
	}
	return errors.Join(errs...)
}
