package metrics

import (
	"context"

	"github.com/kilianp07/factorysim/core/dispatch"
	"github.com/kilianp07/factorysim/core/events"
	coremetrics "github.com/kilianp07/factorysim/core/metrics"
	"github.com/kilianp07/factorysim/infra/logger"
	"github.com/kilianp07/factorysim/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for events.
// It stops when the context is canceled or the bus is closed. The returned
// channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("metrics-collector")
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("record %T: %v", ev, err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) error {
	switch e := ev.(type) {
	case events.DeliveryEvent:
		return sink.RecordDelivery(coremetrics.DeliveryEvent{
			Delivery: e.Delivery,
			Action:   string(e.Action),
			CartID:   e.CartID,
			Time:     e.Time,
		})
	case events.CartEvent:
		if r, ok := sink.(coremetrics.CartStateRecorder); ok {
			return r.RecordCartState(coremetrics.CartStateEvent{Cart: e.Cart, Context: string(e.Action), Tick: e.Tick, Time: e.Time})
		}
	case events.CommandRejectedEvent:
		if r, ok := sink.(coremetrics.CommandRejectionRecorder); ok {
			msg := ""
			if e.Err != nil {
				msg = e.Err.Error()
			}
			return r.RecordCommandRejection(coremetrics.CommandRejectionEvent{
				Command: e.Command,
				CartID:  e.CartID,
				Reason:  dispatch.Reason(e.Err),
				Error:   msg,
				Time:    e.Time,
			})
		}
	case events.TickEvent:
		if r, ok := sink.(coremetrics.TickRecorder); ok {
			return r.RecordTick(coremetrics.TickSample{
				Tick:    e.Tick,
				Idle:    e.Idle,
				Moving:  e.Moving,
				Pending: e.Pending,
				Active:  e.Active,
				Time:    e.Time,
			})
		}
	}
	return nil
}
