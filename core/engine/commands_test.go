package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/factorysim/core/dispatch"
	"github.com/kilianp07/factorysim/core/model"
)

func startRunner(t *testing.T, carts int) (*Runner, context.Context) {
	t.Helper()
	e := newTestEngine(t, carts, nil)
	r := NewRunner(e, nil)
	r.interval = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = r.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return r, ctx
}

func TestRunnerCommands(t *testing.T) {
	r, ctx := startRunner(t, 3)

	del, err := r.DeployCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryAssigned, del.Status)
	assert.Equal(t, "cart-1", del.AssignedCart)

	n, err := r.DeployAllCarts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = r.DeployCart(ctx)
	assert.ErrorIs(t, err, dispatch.ErrNoAvailableCart)

	n, err = r.RecallAllCarts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	err = r.SendGridCommand(ctx, dispatch.NewGridCommand("cart-1", 10, 10))
	assert.ErrorIs(t, err, dispatch.ErrCartBusy)

	require.NoError(t, r.ResetCarts(ctx))
	require.NoError(t, r.SendGridCommand(ctx, dispatch.NewGridCommand("cart-1", 10, 10)))

	snap, err := r.Snapshot(ctx)
	require.NoError(t, err)
	c, ok := snap.Cart("cart-1")
	require.True(t, ok)
	assert.Equal(t, model.CartMoving, c.Status)
	assert.Empty(t, snap.Pending)
}

func TestRunnerProduction(t *testing.T) {
	r, ctx := startRunner(t, 1)

	changed, err := r.SetProduction(ctx, true)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = r.SetProduction(ctx, true)
	require.NoError(t, err)
	assert.False(t, changed)

	snap, err := r.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Production.Producing)

	changed, err = r.SetProduction(ctx, false)
	require.NoError(t, err)
	assert.True(t, changed)
	require.NoError(t, r.ResetProduction(ctx))
}
