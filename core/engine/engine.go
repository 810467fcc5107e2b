package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/factorysim/core/dispatch"
	"github.com/kilianp07/factorysim/core/equipment"
	"github.com/kilianp07/factorysim/core/events"
	"github.com/kilianp07/factorysim/core/logger"
	"github.com/kilianp07/factorysim/core/model"
	"github.com/kilianp07/factorysim/internal/eventbus"
)

// Engine steps the cart pool and owns the scheduled settle checks.
type Engine struct {
	cfg     Config
	disp    *dispatch.Dispatcher
	equip   *equipment.Monitor
	counter *equipment.Counter

	tick   uint64
	checks []uint64

	bus       eventbus.EventBus
	snapshots *eventbus.TypedBus[Snapshot]
	log       logger.Logger
	now       func() time.Time
}

// New wires an engine around a dispatcher and an equipment monitor. bus may
// be nil.
func New(cfg Config, disp *dispatch.Dispatcher, equip *equipment.Monitor, bus eventbus.EventBus, log logger.Logger) (*Engine, error) {
	if disp == nil {
		return nil, fmt.Errorf("engine: dispatcher is required")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if equip == nil {
		equip = equipment.NewMonitor(nil, nil, log)
	}
	return &Engine{
		cfg:       cfg,
		disp:      disp,
		equip:     equip,
		counter:   equipment.NewCounter(cfg.ProductionRate, equip.Update),
		bus:       bus,
		snapshots: eventbus.NewTyped[Snapshot](eventbus.WithBuffer(16)),
		log:       logger.OrNop(log),
		now:       time.Now,
	}, nil
}

// Config returns the effective timing.
func (e *Engine) Config() Config { return e.cfg }

// Dispatcher exposes the dispatcher for commands run between ticks.
func (e *Engine) Dispatcher() *dispatch.Dispatcher { return e.disp }

// Equipment exposes the equipment monitor.
func (e *Engine) Equipment() *equipment.Monitor { return e.equip }

// Snapshots is the stream of tick snapshots.
func (e *Engine) Snapshots() *eventbus.TypedBus[Snapshot] { return e.snapshots }

// CurrentTick returns the number of ticks run.
func (e *Engine) CurrentTick() uint64 { return e.tick }

// PendingChecks returns the number of settle checks not yet due.
func (e *Engine) PendingChecks() int { return len(e.checks) }

// Tick advances every travelling cart by one step in registration order,
// settles arrivals and runs the checks that fell due.
func (e *Engine) Tick() {
	e.tick++
	e.disp.SetTick(e.tick)

	for _, c := range e.disp.Pool() {
		if !c.Travelling() {
			continue
		}
		more := c.Advance()
		if c.Status == model.CartMoving {
			e.disp.TrackProgress(c)
		}
		if !more {
			e.arrive(c)
		}
	}

	e.runDueChecks()

	if pt := e.cfg.ProductionTicks(); pt > 0 && e.tick%pt == 0 {
		e.counter.Update()
	}

	if e.tick%uint64(e.cfg.SnapshotEvery) == 0 {
		e.publishSnapshot()
	}
}

// Run executes n ticks back to back.
func (e *Engine) Run(n int) {
	for i := 0; i < n; i++ {
		e.Tick()
	}
}

func (e *Engine) arrive(c *model.Cart) {
	switch c.Status {
	case model.CartReturning:
		c.Reset()
		e.log.Debugf("cart %s back at %v", c.ID, c.Position)
		e.publishCart(events.CartReturned, c, nil)
	case model.CartMoving:
		cargo := c.Cargo
		c.Reset()
		if cargo != nil && !cargo.IsManual() {
			e.disp.CompleteDelivery(c.ID)
			e.schedule(e.tick + e.cfg.SettleTicks())
		}
		e.log.Debugf("cart %s arrived at %v", c.ID, c.Position)
		e.publishCart(events.CartArrived, c, cargo)
	}
}

func (e *Engine) schedule(due uint64) {
	i := sort.Search(len(e.checks), func(i int) bool { return e.checks[i] > due })
	e.checks = append(e.checks, 0)
	copy(e.checks[i+1:], e.checks[i:])
	e.checks[i] = due
}

func (e *Engine) runDueChecks() {
	n := 0
	for n < len(e.checks) && e.checks[n] <= e.tick {
		n++
	}
	if n == 0 {
		return
	}
	e.checks = e.checks[n:]
	for i := 0; i < n; i++ {
		if e.disp.IdleCount() < e.disp.Config().MinIdleForGeneration {
			continue
		}
		if created := e.disp.GenerateContinuousTasks(); created > 0 {
			e.log.Infof("settle check at tick %d generated %d deliveries", e.tick, created)
		}
	}
}

// Reset parks every cart at its start, cancels all deliveries and drops the
// pending settle checks.
func (e *Engine) Reset() {
	e.disp.Reset()
	e.checks = nil
	e.log.Infof("carts reset at tick %d", e.tick)
	e.publishSnapshot()
}

// StartProduction starts the machines and the production counter.
func (e *Engine) StartProduction() bool {
	if !e.counter.Start(e.now()) {
		return false
	}
	e.equip.Start()
	return true
}

// StopProduction idles the machines and stops the counter.
func (e *Engine) StopProduction() bool {
	if !e.counter.Stop() {
		return false
	}
	e.equip.Stop()
	return true
}

// ResetProduction clears machine and factory totals.
func (e *Engine) ResetProduction() {
	e.counter.Reset()
	e.equip.Reset()
}

// ProductionStats reports the factory counter.
func (e *Engine) ProductionStats() equipment.Stats { return e.counter.Stats(e.now()) }

// Snapshot copies the current state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Tick:       e.tick,
		Time:       e.now(),
		Carts:      e.disp.Carts(),
		Pending:    e.disp.Pending(),
		Active:     e.disp.Active(),
		Equipment:  e.equip.Equipment(),
		Production: e.counter.Stats(e.now()),
		Idle:       e.disp.IdleCount(),
	}
}

func (e *Engine) publishSnapshot() {
	snap := e.Snapshot()
	e.snapshots.Publish(snap)
	if e.bus != nil {
		e.bus.Publish(events.TickEvent{
			Tick:    snap.Tick,
			Idle:    snap.Idle,
			Moving:  snap.CountStatus(model.CartMoving) + snap.CountStatus(model.CartReturning),
			Pending: len(snap.Pending),
			Active:  len(snap.Active),
			Time:    snap.Time,
		})
	}
}

func (e *Engine) publishCart(action events.CartAction, c *model.Cart, cargo *model.Cargo) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(events.CartEvent{Action: action, Cart: c.Clone(), Cargo: cargo, Tick: e.tick, Time: e.now()})
}
