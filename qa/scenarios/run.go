package scenarios

import (
	"math/rand"
	"testing"

	"github.com/kilianp07/factorysim/core/dispatch"
	"github.com/kilianp07/factorysim/core/engine"
	"github.com/kilianp07/factorysim/core/equipment"
	"github.com/kilianp07/factorysim/core/events"
	"github.com/kilianp07/factorysim/core/model"
	"github.com/kilianp07/factorysim/infra/logger"
	"github.com/kilianp07/factorysim/internal/eventbus"
)

// RunScenario drives a fresh engine through the steps of sc and checks every
// expectation.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	rng := rand.New(rand.NewSource(sc.Seed))
	bus := eventbus.New(eventbus.WithBuffer(16384))
	sub := bus.Subscribe()

	carts := make([]*model.Cart, len(sc.Carts))
	for i, c := range sc.Carts {
		carts[i] = c.ToModel()
	}
	if len(carts) == 0 {
		carts = defaultCarts()
	}

	equip := equipment.NewMonitor(nil, rng, logger.NopLogger{})
	disp, err := dispatch.NewDispatcher(carts, dispatch.Config{}, equip, rng, bus, logger.NopLogger{})
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	eng, err := engine.New(engine.Config{}, disp, equip, bus, logger.NopLogger{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	counts := map[string]int{}
	for i, st := range sc.Steps {
		err := apply(eng, st)
		if got := dispatch.Reason(err); got != st.Error {
			t.Fatalf("%s step %d (%s): expected error %q, got %q (%v)", sc.Name, i, st.Action, st.Error, got, err)
		}
		drain(sub, counts)
		if st.Expect != nil {
			check(t, sc.Name, i, eng.Snapshot(), counts, *st.Expect)
		}
	}
}

func defaultCarts() []*model.Cart {
	return []*model.Cart{
		model.NewCart("cart-1", model.Pos(100, 100), 1),
		model.NewCart("cart-2", model.Pos(140, 100), 1),
		model.NewCart("cart-3", model.Pos(180, 100), 1),
	}
}

func apply(eng *engine.Engine, st Step) error {
	disp := eng.Dispatcher()
	switch st.Action {
	case ActionDeploy:
		_, err := disp.DeployCart()
		return err
	case ActionDeployAll:
		_, err := disp.DeployAllCarts()
		return err
	case ActionRecall:
		disp.RecallAllCarts()
	case ActionCommand:
		return disp.SendGridCommand(dispatch.GridCommand{CartID: st.Cart, X: st.X, Y: st.Y})
	case ActionReset:
		eng.Reset()
	case ActionTick:
		eng.Run(st.Ticks)
	}
	return nil
}

func drain(sub <-chan eventbus.Event, counts map[string]int) {
	for {
		select {
		case ev := <-sub:
			if d, ok := ev.(events.DeliveryEvent); ok {
				counts[string(d.Action)]++
			}
		default:
			return
		}
	}
}

func check(t *testing.T, name string, step int, snap engine.Snapshot, counts map[string]int, exp Expect) {
	t.Helper()
	if exp.Idle != nil && snap.Idle != *exp.Idle {
		t.Errorf("%s step %d: expected %d idle, got %d", name, step, *exp.Idle, snap.Idle)
	}
	if exp.Pending != nil && len(snap.Pending) != *exp.Pending {
		t.Errorf("%s step %d: expected %d pending, got %d", name, step, *exp.Pending, len(snap.Pending))
	}
	if exp.Active != nil && len(snap.Active) != *exp.Active {
		t.Errorf("%s step %d: expected %d active, got %d", name, step, *exp.Active, len(snap.Active))
	}
	for action, want := range exp.Events {
		if counts[action] != want {
			t.Errorf("%s step %d: expected %d %s events, got %d", name, step, want, action, counts[action])
		}
	}
	for id, ce := range exp.Carts {
		c, ok := snap.Cart(id)
		if !ok {
			t.Errorf("%s step %d: cart %s missing", name, step, id)
			continue
		}
		if ce.Status != "" && string(c.Status) != ce.Status {
			t.Errorf("%s step %d: cart %s status %s, expected %s", name, step, id, c.Status, ce.Status)
		}
		if ce.X != nil && c.Position.X != *ce.X {
			t.Errorf("%s step %d: cart %s x %v, expected %v", name, step, id, c.Position.X, *ce.X)
		}
		if ce.Y != nil && c.Position.Y != *ce.Y {
			t.Errorf("%s step %d: cart %s y %v, expected %v", name, step, id, c.Position.Y, *ce.Y)
		}
		if ce.PathLen != nil && len(c.Path) != *ce.PathLen {
			t.Errorf("%s step %d: cart %s path length %d, expected %d", name, step, id, len(c.Path), *ce.PathLen)
		}
		if ce.HasCargo != nil && (c.Cargo != nil) != *ce.HasCargo {
			t.Errorf("%s step %d: cart %s cargo %v, expected %v", name, step, id, c.Cargo != nil, *ce.HasCargo)
		}
	}
}
