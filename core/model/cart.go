package model

import (
	"fmt"
	"math"
)

// CartStatus is the movement state of a cart.
type CartStatus string

const (
	CartIdle       CartStatus = "idle"
	CartMoving     CartStatus = "moving"
	CartLoading    CartStatus = "loading"
	CartDelivering CartStatus = "delivering"
	CartReturning  CartStatus = "returning"
)

// Cargo type tags.
const (
	CargoManual        = "manual"
	CargoGoods         = "goods"
	CargoFinishedGoods = "finished_goods"
)

// Cargo is the load carried by a cart. DeliveryID is zero for manual moves.
type Cargo struct {
	ID          string        `json:"id"`
	Type        string        `json:"type"`
	DeliveryID  int64         `json:"delivery_id,omitempty"`
	Weight      float64       `json:"weight,omitempty"`
	Destination *GridPosition `json:"destination,omitempty"`
}

// IsManual reports whether the cargo marks a manual grid command.
func (c Cargo) IsManual() bool { return c.Type == CargoManual }

// Cart is a mobile transporter following straight-line waypoints at a
// constant speed expressed in grid units per tick.
type Cart struct {
	ID        string         `json:"id"`
	Position  GridPosition   `json:"position"`
	Start     GridPosition   `json:"start"`
	Status    CartStatus     `json:"status"`
	Cargo     *Cargo         `json:"cargo,omitempty"`
	Speed     float64        `json:"speed"`
	Path      []GridPosition `json:"path"`
	PathIndex int            `json:"path_index"`
	Photo     string         `json:"photo,omitempty"`
	Remarks   string         `json:"remarks,omitempty"`
}

// NewCart creates an idle cart parked at start. A non-positive speed defaults to 1.
func NewCart(id string, start GridPosition, speed float64) *Cart {
	if speed <= 0 {
		speed = 1
	}
	return &Cart{ID: id, Position: start, Start: start, Status: CartIdle, Speed: speed}
}

// Advance moves the cart one tick along its path and reports whether
// waypoints remain afterwards. A cart never travels further than Speed in a
// single tick and lands exactly on each waypoint.
func (c *Cart) Advance() bool {
	if c.PathIndex >= len(c.Path) {
		return false
	}
	next, arrived := c.Position.Step(c.Path[c.PathIndex], c.Speed)
	c.Position = next
	if !arrived {
		return true
	}
	c.PathIndex++
	return c.PathIndex < len(c.Path)
}

// Assign installs a new path and cargo and puts the cart in motion.
func (c *Cart) Assign(path []GridPosition, cargo *Cargo) {
	c.Status = CartMoving
	c.Cargo = cargo
	c.Path = append([]GridPosition(nil), path...)
	c.PathIndex = 0
}

// Recall sends the cart back to pos without cargo.
func (c *Cart) Recall(pos GridPosition) {
	c.Status = CartReturning
	c.Cargo = nil
	c.Path = []GridPosition{pos}
	c.PathIndex = 0
}

// Reset parks the cart where it stands: idle, empty and without a path.
func (c *Cart) Reset() {
	c.Status = CartIdle
	c.Cargo = nil
	c.Path = nil
	c.PathIndex = 0
}

// IsIdle reports whether the cart can accept work.
func (c *Cart) IsIdle() bool { return c.Status == CartIdle }

// Travelling reports whether the tick driver should advance the cart.
func (c *Cart) Travelling() bool {
	return (c.Status == CartMoving || c.Status == CartReturning) && len(c.Path) > 0
}

// CurrentTarget returns the waypoint the cart is heading to.
func (c *Cart) CurrentTarget() (GridPosition, bool) {
	if c.PathIndex >= len(c.Path) {
		return GridPosition{}, false
	}
	return c.Path[c.PathIndex], true
}

// RemainingDistance is the path length still to travel.
func (c *Cart) RemainingDistance() float64 {
	if c.PathIndex >= len(c.Path) {
		return 0
	}
	return PathLength(c.Position, c.Path[c.PathIndex:])
}

// TicksRemaining is the number of Advance calls needed to finish the path.
func (c *Cart) TicksRemaining() int {
	ticks := 0
	cur := c.Position
	for i := c.PathIndex; i < len(c.Path); i++ {
		leg := cur.Distance(c.Path[i])
		n := int(math.Ceil(leg / c.Speed))
		if n == 0 {
			n = 1
		}
		ticks += n
		cur = c.Path[i]
	}
	return ticks
}

// AddWaypoint appends a waypoint to the current path.
func (c *Cart) AddWaypoint(p GridPosition) {
	c.Path = append(c.Path, p)
}

// LoadCargo puts cargo on the cart and marks it loading.
func (c *Cart) LoadCargo(cargo Cargo) {
	c.Cargo = &cargo
	c.Status = CartLoading
}

// UnloadCargo removes and returns the current cargo.
func (c *Cart) UnloadCargo() *Cargo {
	cargo := c.Cargo
	c.Cargo = nil
	return cargo
}

// HasCargo reports whether the cart is loaded.
func (c *Cart) HasCargo() bool { return c.Cargo != nil }

// Clone returns a deep copy safe to hand to observers.
func (c *Cart) Clone() Cart {
	out := *c
	out.Path = append([]GridPosition(nil), c.Path...)
	if c.Cargo != nil {
		cargo := *c.Cargo
		out.Cargo = &cargo
	}
	return out
}

func (c *Cart) String() string {
	cargo := "none"
	if c.Cargo != nil {
		cargo = c.Cargo.Type
	}
	return fmt.Sprintf("cart %s: position (%d, %d), status: %s, cargo: %s",
		c.ID, int(math.Round(c.Position.X)), int(math.Round(c.Position.Y)), c.Status, cargo)
}
