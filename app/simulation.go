package app

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/kilianp07/factorysim/config"
	"github.com/kilianp07/factorysim/core/dispatch"
	"github.com/kilianp07/factorysim/core/engine"
	"github.com/kilianp07/factorysim/core/equipment"
	"github.com/kilianp07/factorysim/infra/logger"
	"github.com/kilianp07/factorysim/internal/eventbus"
)

// Simulation is the engine with its dispatcher and equipment monitor, without
// any outer surface.
type Simulation struct {
	Engine    *engine.Engine
	Equipment *equipment.Monitor
	Layout    equipment.Layout
	Bus       *eventbus.Bus
}

// NewSimulation builds the cart pool, the floor layout and the engine from
// cfg. bus may be nil, in which case a new one is created.
func NewSimulation(cfg *config.Config, bus *eventbus.Bus) (*Simulation, error) {
	layout := equipment.DefaultLayout()
	if path := cfg.Simulation.CatalogFile; path != "" {
		l, err := equipment.LoadLayout(path)
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		layout = l
	}
	if err := layout.Validate(cfg.Simulation.GridMin, cfg.Simulation.GridMax); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	if bus == nil {
		bus = eventbus.New(eventbus.WithBuffer(64))
	}
	equip := equipment.NewMonitor(layout.Equipment, rng, logger.New("equipment"))

	dcfg := cfg.Dispatch
	if len(layout.Warehouses) > 0 && cfg.Simulation.CatalogFile != "" {
		dcfg.Warehouses = layout.Warehouses
	}
	disp, err := dispatch.NewDispatcher(cfg.Simulation.BuildCarts(), dcfg, equip, rng, bus, logger.New("dispatcher"))
	if err != nil {
		return nil, fmt.Errorf("dispatcher: %w", err)
	}
	eng, err := engine.New(cfg.Simulation.Engine(), disp, equip, bus, logger.New("engine"))
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return &Simulation{Engine: eng, Equipment: equip, Layout: layout, Bus: bus}, nil
}
