package engine

import (
	"time"

	"github.com/kilianp07/factorysim/core/equipment"
	"github.com/kilianp07/factorysim/core/model"
)

// Snapshot is a consistent copy of the simulation state after a tick.
type Snapshot struct {
	Tick       uint64            `json:"tick"`
	Time       time.Time         `json:"time"`
	Carts      []model.Cart      `json:"carts"`
	Pending    []model.Delivery  `json:"pending"`
	Active     []model.Delivery  `json:"active"`
	Equipment  []model.Equipment `json:"equipment"`
	Production equipment.Stats   `json:"production"`
	Idle       int               `json:"idle"`
}

// Cart returns the cart with the given id.
func (s Snapshot) Cart(id string) (model.Cart, bool) {
	for _, c := range s.Carts {
		if c.ID == id {
			return c, true
		}
	}
	return model.Cart{}, false
}

// CountStatus returns how many carts are in the given status.
func (s Snapshot) CountStatus(status model.CartStatus) int {
	n := 0
	for _, c := range s.Carts {
		if c.Status == status {
			n++
		}
	}
	return n
}
