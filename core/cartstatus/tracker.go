package cartstatus

import (
	"context"
	"time"

	"github.com/kilianp07/factorysim/core/events"
	"github.com/kilianp07/factorysim/core/logger"
	"github.com/kilianp07/factorysim/core/model"
	"github.com/kilianp07/factorysim/internal/eventbus"
)

// Tracker keeps a Store up to date from bus events.
type Tracker struct {
	store Store
	bus   eventbus.EventBus
	log   logger.Logger
}

func NewTracker(store Store, bus eventbus.EventBus, log logger.Logger) *Tracker {
	return &Tracker{store: store, bus: bus, log: logger.OrNop(log)}
}

// Seed records the initial state of the pool.
func (t *Tracker) Seed(ctx context.Context, carts []model.Cart) error {
	for _, c := range carts {
		if err := t.update(ctx, c.ID, func(st *Status) {
			st.CurrentStatus = string(c.Status)
			st.Position = c.Position
		}, time.Now()); err != nil {
			return err
		}
	}
	return nil
}

// Start consumes bus events until ctx is done or the bus closes.
func (t *Tracker) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if t.bus == nil || t.store == nil {
		close(done)
		return done
	}
	sub := t.bus.Subscribe()
	go func() {
		defer close(done)
		defer t.bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := t.Handle(ctx, ev); err != nil {
					t.log.Warnf("cart status update: %v", err)
				}
			}
		}
	}()
	return done
}

// Handle applies one event to the store.
func (t *Tracker) Handle(ctx context.Context, ev eventbus.Event) error {
	switch e := ev.(type) {
	case events.DeliveryEvent:
		switch e.Action {
		case events.DeliveryAssigned:
			d := e.Delivery
			return t.update(ctx, e.CartID, func(st *Status) {
				st.CurrentStatus = string(model.CartMoving)
				st.LastAssignment = &LastAssignment{DeliveryID: d.ID, Type: d.Type, From: d.From, To: d.To, Timestamp: e.Time}
			}, e.Time)
		case events.DeliveryCompleted:
			_, err := t.store.IncrementCompleted(ctx, e.CartID)
			return err
		}
	case events.CartEvent:
		c := e.Cart
		return t.update(ctx, c.ID, func(st *Status) {
			st.CurrentStatus = string(c.Status)
			st.Position = c.Position
		}, e.Time)
	}
	return nil
}

func (t *Tracker) update(ctx context.Context, id string, apply func(*Status), at time.Time) error {
	if id == "" {
		return nil
	}
	st, _, err := t.store.Get(ctx, id)
	if err != nil {
		return err
	}
	st.CartID = id
	apply(&st)
	st.UpdatedAt = at
	return t.store.Set(ctx, st)
}
