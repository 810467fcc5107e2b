package events

import (
	"time"

	"github.com/kilianp07/factorysim/core/model"
)

// DeliveryAction names a delivery lifecycle transition.
type DeliveryAction string

const (
	DeliveryCreated   DeliveryAction = "created"
	DeliveryAssigned  DeliveryAction = "assigned"
	DeliveryPickedUp  DeliveryAction = "picked_up"
	DeliveryCompleted DeliveryAction = "completed"
	DeliveryCancelled DeliveryAction = "cancelled"
)

// DeliveryEvent is published on every delivery transition. Delivery is a
// copy taken right after the transition.
type DeliveryEvent struct {
	Action   DeliveryAction
	Delivery model.Delivery
	CartID   string
	Time     time.Time
}
