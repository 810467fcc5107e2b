package journal

import (
	"context"

	"github.com/kilianp07/factorysim/core/events"
	"github.com/kilianp07/factorysim/core/logger"
	"github.com/kilianp07/factorysim/core/model"
	"github.com/kilianp07/factorysim/internal/eventbus"
)

// FromEvent converts a bus event into a journal record. Events that are not
// journaled report false.
func FromEvent(ev eventbus.Event) (Record, bool) {
	switch e := ev.(type) {
	case events.DeliveryEvent:
		d := e.Delivery
		from, to := d.From, d.To
		cart := e.CartID
		if cart == "" {
			cart = d.AssignedCart
		}
		return Record{
			Timestamp:    e.Time,
			Kind:         KindDelivery,
			Action:       string(e.Action),
			CartID:       cart,
			DeliveryID:   d.ID,
			DeliveryType: d.Type,
			Status:       string(d.Status),
			From:         &from,
			To:           &to,
		}, true
	case events.CartEvent:
		pos := e.Cart.Position
		rec := Record{
			Timestamp: e.Time,
			Kind:      KindCart,
			Action:    string(e.Action),
			CartID:    e.Cart.ID,
			Status:    string(e.Cart.Status),
			Position:  &pos,
			Tick:      e.Tick,
		}
		if e.Cargo != nil {
			rec.DeliveryID = e.Cargo.DeliveryID
			rec.DeliveryType = e.Cargo.Type
			if e.Cargo.Destination != nil {
				dst := *e.Cargo.Destination
				rec.To = &dst
			}
		}
		return rec, true
	case events.CommandRejectedEvent:
		rec := Record{
			Timestamp: e.Time,
			Kind:      KindRejection,
			Action:    e.Command,
			CartID:    e.CartID,
		}
		if e.Err != nil {
			rec.Error = e.Err.Error()
		}
		return rec, true
	}
	return Record{}, false
}

// Recorder appends bus events to a Store.
type Recorder struct {
	store Store
	bus   eventbus.EventBus
	log   logger.Logger
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(store Store, bus eventbus.EventBus, log logger.Logger) *Recorder {
	return &Recorder{store: store, bus: bus, log: logger.OrNop(log)}
}

// Start subscribes to the bus and records until ctx is done or the bus is
// closed. The returned channel is closed when the recorder exits.
func (r *Recorder) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if r.bus == nil || r.store == nil {
		close(done)
		return done
	}
	sub := r.bus.Subscribe()
	go func() {
		defer close(done)
		defer r.bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				rec, ok := FromEvent(ev)
				if !ok {
					continue
				}
				if err := r.store.Append(context.Background(), rec); err != nil {
					r.log.Errorf("journal append %s/%s: %v", rec.Kind, rec.Action, err)
				}
			}
		}
	}()
	return done
}

// Summary counts completed and cancelled deliveries per cart.
type Summary struct {
	CartID    string `json:"cart_id"`
	Completed int    `json:"completed"`
	Cancelled int    `json:"cancelled"`
	Rejected  int    `json:"rejected"`
}

// Summarize aggregates delivery outcomes per cart in first seen order.
func Summarize(recs []Record) []Summary {
	var out []Summary
	index := map[string]int{}
	get := func(id string) *Summary {
		i, ok := index[id]
		if !ok {
			i = len(out)
			index[id] = i
			out = append(out, Summary{CartID: id})
		}
		return &out[i]
	}
	for _, r := range recs {
		if r.CartID == "" {
			continue
		}
		switch {
		case r.Kind == KindDelivery && r.Status == string(model.DeliveryCompleted):
			get(r.CartID).Completed++
		case r.Kind == KindDelivery && r.Status == string(model.DeliveryCancelled):
			get(r.CartID).Cancelled++
		case r.Kind == KindRejection:
			get(r.CartID).Rejected++
		}
	}
	return out
}
