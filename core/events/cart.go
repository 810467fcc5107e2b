package events

import (
	"time"

	"github.com/kilianp07/factorysim/core/model"
)

// CartAction names a cart level occurrence.
type CartAction string

const (
	CartArrived  CartAction = "arrived"
	CartReturned CartAction = "returned"
	CartRecalled CartAction = "recalled"
	CartManual   CartAction = "manual_move"
)

// CartEvent carries a snapshot of the cart after the action was applied.
// Cargo holds what the cart carried on arrival.
type CartEvent struct {
	Action CartAction
	Cart   model.Cart
	Cargo  *model.Cargo
	Tick   uint64
	Time   time.Time
}

// CommandRejectedEvent reports a command that did not apply.
type CommandRejectedEvent struct {
	Command string
	CartID  string
	Err     error
	Time    time.Time
}

// TickEvent summarizes one simulation step.
type TickEvent struct {
	Tick    uint64
	Idle    int
	Moving  int
	Pending int
	Active  int
	Time    time.Time
}
