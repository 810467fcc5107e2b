package engine

import (
	"fmt"
	"time"
)

// Config holds the timing of the simulation loop.
type Config struct {
	TickIntervalMS       int     `json:"tick_interval_ms"`
	SettleDelayMS        int     `json:"settle_delay_ms"`
	ProductionIntervalMS int     `json:"production_interval_ms"`
	ProductionRate       float64 `json:"production_rate"`
	// SnapshotEvery publishes a snapshot every n ticks. Zero means every tick.
	SnapshotEvery int `json:"snapshot_every"`
}

// SetDefaults applies a 100ms tick, a 2s settle delay and a 1s production
// interval.
func (c *Config) SetDefaults() {
	if c.TickIntervalMS <= 0 {
		c.TickIntervalMS = 100
	}
	if c.SettleDelayMS <= 0 {
		c.SettleDelayMS = 2000
	}
	if c.ProductionIntervalMS <= 0 {
		c.ProductionIntervalMS = 1000
	}
	if c.SnapshotEvery <= 0 {
		c.SnapshotEvery = 1
	}
}

// Validate ensures the delays are whole multiples of the tick.
func (c Config) Validate() error {
	if c.TickIntervalMS <= 0 {
		return fmt.Errorf("engine: tick_interval_ms must be positive")
	}
	if c.SettleDelayMS%c.TickIntervalMS != 0 {
		return fmt.Errorf("engine: settle_delay_ms %d is not a multiple of tick_interval_ms %d", c.SettleDelayMS, c.TickIntervalMS)
	}
	if c.ProductionIntervalMS%c.TickIntervalMS != 0 {
		return fmt.Errorf("engine: production_interval_ms %d is not a multiple of tick_interval_ms %d", c.ProductionIntervalMS, c.TickIntervalMS)
	}
	return nil
}

// TickInterval returns the wall clock period of one tick.
func (c Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// SettleTicks is the delay between an arrival and its settle check.
func (c Config) SettleTicks() uint64 { return uint64(c.SettleDelayMS / c.TickIntervalMS) }

// ProductionTicks is the number of ticks per production update.
func (c Config) ProductionTicks() uint64 { return uint64(c.ProductionIntervalMS / c.TickIntervalMS) }
