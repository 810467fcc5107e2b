package metrics

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/factorysim/core/dispatch"
	"github.com/kilianp07/factorysim/core/events"
	coremetrics "github.com/kilianp07/factorysim/core/metrics"
	"github.com/kilianp07/factorysim/core/model"
	"github.com/kilianp07/factorysim/internal/eventbus"
)

type captureSink struct {
	mu         sync.Mutex
	deliveries []coremetrics.DeliveryEvent
	carts      []coremetrics.CartStateEvent
	rejections []coremetrics.CommandRejectionEvent
	ticks      []coremetrics.TickSample
}

func (c *captureSink) RecordDelivery(ev coremetrics.DeliveryEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deliveries = append(c.deliveries, ev)
	return nil
}

func (c *captureSink) RecordCartState(ev coremetrics.CartStateEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.carts = append(c.carts, ev)
	return nil
}

func (c *captureSink) RecordCommandRejection(ev coremetrics.CommandRejectionEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejections = append(c.rejections, ev)
	return nil
}

func (c *captureSink) RecordTick(s coremetrics.TickSample) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = append(c.ticks, s)
	return nil
}

func (c *captureSink) counts() (int, int, int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.deliveries), len(c.carts), len(c.rejections), len(c.ticks)
}

func TestStartEventCollector(t *testing.T) {
	bus := eventbus.New()
	sink := &captureSink{}
	ctx, cancel := context.WithCancel(context.Background())
	done := StartEventCollector(ctx, bus, sink)

	now := time.Now()
	bus.Publish(events.DeliveryEvent{Action: events.DeliveryCreated, Delivery: model.Delivery{ID: 1}, Time: now})
	bus.Publish(events.CartEvent{Action: events.CartArrived, Cart: *model.NewCart("cart-1", model.Pos(0, 0), 1), Tick: 5, Time: now})
	bus.Publish(events.CommandRejectedEvent{Command: "grid", CartID: "cart-1", Err: fmt.Errorf("x: %w", dispatch.ErrCartBusy), Time: now})
	bus.Publish(events.TickEvent{Tick: 5, Idle: 1, Time: now})
	bus.Publish("ignored")

	require.Eventually(t, func() bool {
		d, c, r, tk := sink.counts()
		return d == 1 && c == 1 && r == 1 && tk == 1
	}, time.Second, 5*time.Millisecond)

	sink.mu.Lock()
	assert.Equal(t, "created", sink.deliveries[0].Action)
	assert.Equal(t, "arrived", sink.carts[0].Context)
	assert.Equal(t, uint64(5), sink.carts[0].Tick)
	assert.Equal(t, "cart_busy", sink.rejections[0].Reason)
	assert.Contains(t, sink.rejections[0].Error, "cart busy")
	sink.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
	assert.Equal(t, 0, bus.Subscribers())
}

func TestStartEventCollectorNil(t *testing.T) {
	done := StartEventCollector(context.Background(), nil, coremetrics.NopSink{})
	select {
	case <-done:
	default:
		t.Fatal("expected closed channel")
	}
}
