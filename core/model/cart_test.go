package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAdvanceSnapsToWaypoints(t *testing.T) {
	c := NewCart("c1", Pos(0, 0), 1)
	c.Assign([]GridPosition{Pos(3, 0), Pos(3, 2)}, &Cargo{ID: "x", Type: CargoGoods})

	ticks := c.TicksRemaining()
	if ticks != 5 {
		t.Fatalf("expected 5 ticks got %d", ticks)
	}
	for i := 0; i < ticks-1; i++ {
		if !c.Advance() {
			t.Fatalf("path exhausted early at tick %d", i)
		}
	}
	if c.Advance() {
		t.Fatalf("expected path exhausted")
	}
	assert.Equal(t, Pos(3, 2), c.Position)
	assert.Equal(t, len(c.Path), c.PathIndex)
	assert.False(t, c.Advance(), "advance past the end stays exhausted")
	assert.Equal(t, len(c.Path), c.PathIndex)
}

func TestCartAdvanceBoundedBySpeed(t *testing.T) {
	c := NewCart("c1", Pos(0, 0), 2)
	c.Assign([]GridPosition{Pos(5, 0)}, nil)
	prev := c.Position
	for c.Advance() {
		if d := prev.Distance(c.Position); d > c.Speed+1e-9 {
			t.Fatalf("moved %v > speed", d)
		}
		prev = c.Position
	}
	assert.Equal(t, Pos(5, 0), c.Position)
}

func TestCartRemainingDistanceProperty(t *testing.T) {
	paths := [][]GridPosition{
		{Pos(10, 0)},
		{Pos(0, 7), Pos(4, 7)},
		{Pos(100, 100)},
	}
	for _, p := range paths {
		c := NewCart("c", Pos(0, 0), 1)
		c.Assign(p, nil)
		n := c.TicksRemaining()
		for i := 0; i < n; i++ {
			c.Advance()
		}
		last := p[len(p)-1]
		assert.InDelta(t, last.X, c.Position.X, 1e-9)
		assert.InDelta(t, last.Y, c.Position.Y, 1e-9)
		assert.Equal(t, len(p), c.PathIndex)
		assert.Zero(t, c.RemainingDistance())
	}
}

func TestCartRecallAndReset(t *testing.T) {
	c := NewCart("c1", Pos(100, 100), 1)
	c.Assign([]GridPosition{Pos(600, 100), Pos(200, 200)}, &Cargo{ID: "cargo-1", Type: CargoGoods})
	c.Advance()

	c.Recall(c.Start)
	assert.Equal(t, CartReturning, c.Status)
	assert.Nil(t, c.Cargo)
	require.Len(t, c.Path, 1)
	assert.Equal(t, Pos(100, 100), c.Path[0])
	assert.Zero(t, c.PathIndex)

	c.Reset()
	assert.True(t, c.IsIdle())
	assert.Empty(t, c.Path)
	assert.False(t, c.HasCargo())
}

func TestCartCargoHelpers(t *testing.T) {
	c := NewCart("c1", Pos(0, 0), 0)
	assert.Equal(t, 1.0, c.Speed)
	c.LoadCargo(Cargo{ID: "a", Type: CargoManual})
	assert.Equal(t, CartLoading, c.Status)
	assert.True(t, c.Cargo.IsManual())
	got := c.UnloadCargo()
	require.NotNil(t, got)
	assert.Equal(t, "a", got.ID)
	assert.False(t, c.HasCargo())
}

func TestCartCloneIsIndependent(t *testing.T) {
	c := NewCart("c1", Pos(0, 0), 1)
	c.Assign([]GridPosition{Pos(1, 1)}, &Cargo{ID: "a"})
	cp := c.Clone()
	c.Path[0] = Pos(9, 9)
	c.Cargo.ID = "b"
	assert.Equal(t, Pos(1, 1), cp.Path[0])
	assert.Equal(t, "a", cp.Cargo.ID)
}

func TestCartString(t *testing.T) {
	c := NewCart("cart-1", Pos(100.4, 99.6), 1)
	assert.Equal(t, "cart cart-1: position (100, 100), status: idle, cargo: none", c.String())
}

func TestCartAddWaypointAndTarget(t *testing.T) {
	c := NewCart("c", Pos(0, 0), 1)
	_, ok := c.CurrentTarget()
	assert.False(t, ok)
	c.AddWaypoint(Pos(2, 0))
	target, ok := c.CurrentTarget()
	assert.True(t, ok)
	assert.Equal(t, Pos(2, 0), target)
	assert.Equal(t, 2.0, c.RemainingDistance())
}
