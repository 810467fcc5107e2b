package eventbus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Tick int64
	Idle int
}

func TestTypedBusFanOut(t *testing.T) {
	bus := NewTyped[snapshot](WithBuffer(2))
	a := bus.Subscribe()
	b := bus.Subscribe()
	bus.Publish(snapshot{Tick: 1, Idle: 3})

	require.Equal(t, snapshot{Tick: 1, Idle: 3}, <-a)
	require.Equal(t, snapshot{Tick: 1, Idle: 3}, <-b)

	bus.Unsubscribe(a)
	bus.Publish(snapshot{Tick: 2})
	require.Equal(t, int64(2), (<-b).Tick)
}

func TestTypedBusClose(t *testing.T) {
	bus := NewTyped[snapshot]()
	subs := []<-chan snapshot{bus.Subscribe(), bus.Subscribe()}
	bus.Close()
	for i, ch := range subs {
		_, ok := <-ch
		require.False(t, ok, "subscriber %d still open", i)
	}
	require.NotPanics(t, func() { bus.Unsubscribe(subs[0]) })
	require.NotPanics(t, func() { bus.Publish(snapshot{Tick: 9}) })
}

func TestTypedBusDropsWhenSubscriberLags(t *testing.T) {
	bus := NewTyped[int](WithBuffer(1))
	ch := bus.Subscribe()
	bus.Publish(1)
	bus.Publish(2)
	bus.Publish(3)
	require.EqualValues(t, 2, bus.Dropped())
	require.Equal(t, 1, <-ch)
}
