package model

import "time"

// DeliveryStatus tracks a delivery through its lifecycle.
type DeliveryStatus string

const (
	DeliveryPending    DeliveryStatus = "pending"
	DeliveryAssigned   DeliveryStatus = "assigned"
	DeliveryInProgress DeliveryStatus = "in_progress"
	DeliveryCompleted  DeliveryStatus = "completed"
	DeliveryCancelled  DeliveryStatus = "cancelled"
)

// Delivery is a transport request from a pickup to a dropoff coordinate.
// AssignedCart is a back-reference only; the cart owns its position.
type Delivery struct {
	ID           int64          `json:"id"`
	Type         string         `json:"type"`
	From         GridPosition   `json:"from"`
	To           GridPosition   `json:"to"`
	Status       DeliveryStatus `json:"status"`
	AssignedCart string         `json:"assigned_cart,omitempty"`
	Priority     int            `json:"priority,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	CompletedAt  time.Time      `json:"completed_at,omitempty"`
}

// Path is the two-waypoint route a cart follows for this delivery.
func (d Delivery) Path() []GridPosition {
	return []GridPosition{d.From, d.To}
}

// Terminal reports whether the delivery reached a final state.
func (d Delivery) Terminal() bool {
	return d.Status == DeliveryCompleted || d.Status == DeliveryCancelled
}
