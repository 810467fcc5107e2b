package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/factorysim/core/dispatch"
	"github.com/kilianp07/factorysim/core/events"
	"github.com/kilianp07/factorysim/core/model"
	"github.com/kilianp07/factorysim/infra/logger"
	"github.com/kilianp07/factorysim/internal/eventbus"
)

func newTestEngine(t *testing.T, carts int, bus eventbus.EventBus) *Engine {
	t.Helper()
	pool := make([]*model.Cart, carts)
	for i := range pool {
		pool[i] = model.NewCart(fmt.Sprintf("cart-%d", i+1), model.Pos(100+float64(i)*40, 100), 1)
	}
	d, err := dispatch.NewDispatcher(pool, dispatch.Config{}, nil, &dispatch.SequenceSource{Values: []int{0}}, bus, logger.NopLogger{})
	require.NoError(t, err)
	e, err := New(Config{}, d, nil, bus, logger.NopLogger{})
	require.NoError(t, err)
	return e
}

// runUntil ticks until cond holds and returns the number of ticks taken.
func runUntil(t *testing.T, e *Engine, max int, cond func() bool) int {
	t.Helper()
	for i := 1; i <= max; i++ {
		e.Tick()
		if cond() {
			return i
		}
	}
	t.Fatalf("condition not met after %d ticks", max)
	return 0
}

func cartIdle(e *Engine, id string) func() bool {
	return func() bool {
		c, _ := e.Dispatcher().Cart(id)
		return c.IsIdle()
	}
}

func TestConfigValidate(t *testing.T) {
	c := Config{TickIntervalMS: 100, SettleDelayMS: 150}
	c.SetDefaults()
	assert.Error(t, c.Validate())

	c = Config{}
	c.SetDefaults()
	require.NoError(t, c.Validate())
	assert.Equal(t, uint64(20), c.SettleTicks())
	assert.Equal(t, uint64(10), c.ProductionTicks())
	assert.Equal(t, 100*time.Millisecond, c.TickInterval())
}

func TestNewRequiresDispatcher(t *testing.T) {
	_, err := New(Config{}, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestTickDeliversAndSchedulesGeneration(t *testing.T) {
	e := newTestEngine(t, 3, nil)
	d := e.Dispatcher()
	del, err := d.DeployCart()
	require.NoError(t, err)

	runUntil(t, e, 600, func() bool {
		a, ok := d.ActiveFor("cart-1")
		return ok && a.Status == model.DeliveryInProgress
	})
	c, _ := d.Cart("cart-1")
	assert.Equal(t, model.Pos(600, 100), c.Position)
	assert.Equal(t, 1, c.PathIndex)

	runUntil(t, e, 1000, cartIdle(e, "cart-1"))
	c, _ = d.Cart("cart-1")
	assert.Equal(t, model.Pos(200, 200), c.Position)
	assert.Nil(t, c.Cargo)
	assert.Empty(t, c.Path)

	hist := d.History()
	require.Len(t, hist, 1)
	assert.Equal(t, del.ID, hist[0].ID)
	assert.Equal(t, model.DeliveryCompleted, hist[0].Status)
	assert.Equal(t, 1, e.PendingChecks())

	e.Run(19)
	assert.Empty(t, d.Active(), "settle check ran early")
	e.Tick()
	assert.Equal(t, 0, e.PendingChecks())
	active := d.Active()
	require.Len(t, active, 3)
	for _, a := range active {
		assert.Equal(t, model.CargoFinishedGoods, a.Type)
	}
}

func TestManualArrivalSchedulesNothing(t *testing.T) {
	e := newTestEngine(t, 3, nil)
	require.NoError(t, e.Dispatcher().SendGridCommand(dispatch.NewGridCommand("cart-1", 105, 100)))

	n := runUntil(t, e, 10, cartIdle(e, "cart-1"))
	assert.Equal(t, 5, n)
	c, _ := e.Dispatcher().Cart("cart-1")
	assert.Equal(t, model.Pos(105, 100), c.Position)
	assert.Equal(t, 0, e.PendingChecks())
	assert.Empty(t, e.Dispatcher().History())
}

func TestRecallReturnsCartsToStart(t *testing.T) {
	e := newTestEngine(t, 3, nil)
	d := e.Dispatcher()
	_, err := d.DeployCart()
	require.NoError(t, err)
	e.Run(10)

	d.RecallAllCarts()
	n := runUntil(t, e, 20, cartIdle(e, "cart-1"))
	assert.Equal(t, 10, n)
	for _, c := range d.Carts() {
		assert.Equal(t, model.CartIdle, c.Status)
		assert.Equal(t, c.Start, c.Position)
	}
	assert.Equal(t, 0, e.PendingChecks())
	require.Len(t, d.History(), 1)
	assert.Equal(t, model.DeliveryCancelled, d.History()[0].Status)
}

func TestSettleCheckNeedsTwoIdleCarts(t *testing.T) {
	e := newTestEngine(t, 2, nil)
	d := e.Dispatcher()
	_, err := d.DeployCart()
	require.NoError(t, err)
	require.NoError(t, d.SendGridCommand(dispatch.NewGridCommand("cart-2", 1000, 1000)))

	runUntil(t, e, 1000, cartIdle(e, "cart-1"))
	require.Equal(t, 1, e.PendingChecks())
	e.Run(20)
	assert.Equal(t, 0, e.PendingChecks())
	assert.Empty(t, d.Active())
	assert.Equal(t, 0, d.PendingCount())
}

func TestResetDropsScheduledChecks(t *testing.T) {
	e := newTestEngine(t, 3, nil)
	d := e.Dispatcher()
	_, err := d.DeployCart()
	require.NoError(t, err)
	runUntil(t, e, 1000, cartIdle(e, "cart-1"))
	require.Equal(t, 1, e.PendingChecks())

	e.Reset()
	assert.Equal(t, 0, e.PendingChecks())
	e.Run(30)
	assert.Empty(t, d.Active())
	for _, c := range d.Carts() {
		assert.Equal(t, c.Start, c.Position)
	}
}

func TestCartsAdvanceInRegistrationOrder(t *testing.T) {
	bus := eventbus.New(eventbus.WithBuffer(256))
	defer bus.Close()
	sub := bus.Subscribe()
	e := newTestEngine(t, 3, bus)
	d := e.Dispatcher()
	require.NoError(t, d.SendGridCommand(dispatch.NewGridCommand("cart-3", 182, 100)))
	require.NoError(t, d.SendGridCommand(dispatch.NewGridCommand("cart-1", 102, 100)))
	e.Run(2)

	var arrived []string
	for len(arrived) < 2 {
		select {
		case ev := <-sub:
			if ce, ok := ev.(events.CartEvent); ok && ce.Action == events.CartArrived {
				arrived = append(arrived, ce.Cart.ID)
				assert.True(t, ce.Cargo.IsManual())
			}
		case <-time.After(time.Second):
			t.Fatalf("arrivals: %v", arrived)
		}
	}
	assert.Equal(t, []string{"cart-1", "cart-3"}, arrived)
}

func TestProductionAdvancesWithTicks(t *testing.T) {
	e := newTestEngine(t, 1, nil)
	e.Run(10)
	assert.Zero(t, e.ProductionStats().TotalProduced)

	require.True(t, e.StartProduction())
	assert.False(t, e.StartProduction())
	e.Run(10)
	assert.InDelta(t, 50.0/60, e.ProductionStats().TotalProduced, 1e-9)
	for _, eq := range e.Equipment().Equipment() {
		assert.Equal(t, model.EquipmentRunning, eq.Status)
		assert.Greater(t, eq.TotalProduced, 0.0)
	}

	require.True(t, e.StopProduction())
	e.ResetProduction()
	assert.Zero(t, e.ProductionStats().TotalProduced)
}

func TestSnapshotsArePublished(t *testing.T) {
	e := newTestEngine(t, 2, nil)
	sub := e.Snapshots().Subscribe()
	defer e.Snapshots().Unsubscribe(sub)

	_, err := e.Dispatcher().DeployCart()
	require.NoError(t, err)
	e.Tick()

	select {
	case snap := <-sub:
		assert.Equal(t, uint64(1), snap.Tick)
		assert.Len(t, snap.Carts, 2)
		assert.Len(t, snap.Active, 1)
		assert.Equal(t, 1, snap.Idle)
		c, ok := snap.Cart("cart-1")
		require.True(t, ok)
		assert.Equal(t, model.Pos(101, 100), c.Position)
		assert.Equal(t, 1, snap.CountStatus(model.CartMoving))
	case <-time.After(time.Second):
		t.Fatal("no snapshot")
	}
}
