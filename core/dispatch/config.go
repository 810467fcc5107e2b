package dispatch

import (
	"fmt"

	"github.com/kilianp07/factorysim/core/model"
)

// Config defines dispatch-related settings.
type Config struct {
	GridMin float64 `json:"grid_min"`
	GridMax float64 `json:"grid_max"`
	// BulkMax caps the number of deliveries created by DeployAllCarts.
	BulkMax int `json:"bulk_max"`
	// MinIdleForGeneration is the idle cart count required by the settle
	// check before continuous generation runs.
	MinIdleForGeneration int `json:"min_idle_for_generation"`
	// MaxPendingForGeneration blocks continuous generation while the queue
	// holds this many deliveries or more.
	MaxPendingForGeneration int                  `json:"max_pending_for_generation"`
	HistorySize             int                  `json:"history_size"`
	Warehouses              []model.GridPosition `json:"warehouses"`
}

// SetDefaults applies the factory floor defaults.
func (c *Config) SetDefaults() {
	if c.GridMax == 0 {
		c.GridMax = 1000
	}
	if c.BulkMax <= 0 {
		c.BulkMax = 3
	}
	if c.MinIdleForGeneration <= 0 {
		c.MinIdleForGeneration = 2
	}
	if c.MaxPendingForGeneration <= 0 {
		c.MaxPendingForGeneration = 2
	}
	if c.HistorySize <= 0 {
		c.HistorySize = 100
	}
	if len(c.Warehouses) == 0 {
		c.Warehouses = model.DefaultWarehouses()
	}
}

// Validate checks the grid bounds and that every warehouse lies inside them.
func (c Config) Validate() error {
	if c.GridMax <= c.GridMin {
		return fmt.Errorf("dispatch: grid_max %v must exceed grid_min %v", c.GridMax, c.GridMin)
	}
	for i, w := range c.Warehouses {
		if !w.InBounds(c.GridMin, c.GridMax) {
			return fmt.Errorf("dispatch: warehouse %d at %v: %w", i, w, ErrInvalidCoordinate)
		}
	}
	return nil
}
