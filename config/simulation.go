package config

import (
	"fmt"

	"github.com/kilianp07/factorysim/core/engine"
	"github.com/kilianp07/factorysim/core/model"
)

// CartSpec places one cart of the pool.
type CartSpec struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Speed   float64 `json:"speed"`
	Photo   string  `json:"photo"`
	Remarks string  `json:"remarks"`
}

// Position is the start coordinate of the cart.
func (c CartSpec) Position() model.GridPosition { return model.Pos(c.X, c.Y) }

// SimulationConfig defines the floor and the timing of the tick loop.
type SimulationConfig struct {
	TickIntervalMS       int     `json:"tick_interval_ms"`
	SettleDelayMS        int     `json:"settle_delay_ms"`
	ProductionIntervalMS int     `json:"production_interval_ms"`
	ProductionRate       float64 `json:"production_rate"`
	SnapshotEvery        int     `json:"snapshot_every"`
	CartSpeed            float64 `json:"cart_speed"`
	GridMin              float64 `json:"grid_min"`
	GridMax              float64 `json:"grid_max"`
	// Seed fixes the random source. Zero seeds from the clock.
	Seed int64 `json:"seed"`
	// CatalogFile overrides equipment and warehouses (yaml or json).
	CatalogFile string     `json:"catalog_file"`
	Carts       []CartSpec `json:"carts"`
}

// DefaultCarts returns the three-cart pool parked along y=100.
func DefaultCarts() []CartSpec {
	return []CartSpec{
		{ID: "cart-1", X: 100, Y: 100},
		{ID: "cart-2", X: 140, Y: 100},
		{ID: "cart-3", X: 180, Y: 100},
	}
}

func (c *SimulationConfig) SetDefaults() {
	e := c.Engine()
	e.SetDefaults()
	c.TickIntervalMS = e.TickIntervalMS
	c.SettleDelayMS = e.SettleDelayMS
	c.ProductionIntervalMS = e.ProductionIntervalMS
	c.SnapshotEvery = e.SnapshotEvery
	if c.CartSpeed <= 0 {
		c.CartSpeed = 1
	}
	if c.GridMax == 0 {
		c.GridMax = 1000
	}
	if len(c.Carts) == 0 {
		c.Carts = DefaultCarts()
	}
}

func (c SimulationConfig) Validate() error {
	if err := c.Engine().Validate(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Carts))
	for _, cart := range c.Carts {
		if cart.ID == "" {
			return fmt.Errorf("simulation: cart without id")
		}
		if seen[cart.ID] {
			return fmt.Errorf("simulation: duplicate cart id %s", cart.ID)
		}
		seen[cart.ID] = true
	}
	return nil
}

// Engine returns the timing section as engine settings.
func (c SimulationConfig) Engine() engine.Config {
	return engine.Config{
		TickIntervalMS:       c.TickIntervalMS,
		SettleDelayMS:        c.SettleDelayMS,
		ProductionIntervalMS: c.ProductionIntervalMS,
		ProductionRate:       c.ProductionRate,
		SnapshotEvery:        c.SnapshotEvery,
	}
}

// BuildCarts creates the cart pool in declaration order.
func (c SimulationConfig) BuildCarts() []*model.Cart {
	carts := make([]*model.Cart, 0, len(c.Carts))
	for _, cc := range c.Carts {
		speed := cc.Speed
		if speed <= 0 {
			speed = c.CartSpeed
		}
		cart := model.NewCart(cc.ID, cc.Position(), speed)
		cart.Photo = cc.Photo
		cart.Remarks = cc.Remarks
		carts = append(carts, cart)
	}
	return carts
}
