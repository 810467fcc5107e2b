package metrics

import (
	"time"

	"github.com/kilianp07/factorysim/core/model"
)

// DeliveryEvent is a delivery transition to be recorded.
type DeliveryEvent struct {
	Delivery model.Delivery
	Action   string
	CartID   string
	Time     time.Time
}

// LeadTime is the time between creation and the terminal transition, or
// zero while the delivery is still open.
func (e DeliveryEvent) LeadTime() time.Duration {
	if e.Delivery.CompletedAt.IsZero() || e.Delivery.CreatedAt.IsZero() {
		return 0
	}
	return e.Delivery.CompletedAt.Sub(e.Delivery.CreatedAt)
}

// MetricsSink records delivery transitions for observability purposes.
type MetricsSink interface {
	RecordDelivery(ev DeliveryEvent) error
}

// CartStateEvent is a snapshot of a cart taken when something happened to it.
type CartStateEvent struct {
	Cart    model.Cart
	Context string
	Tick    uint64
	Time    time.Time
}

// CartStateRecorder records cart snapshots.
type CartStateRecorder interface {
	RecordCartState(ev CartStateEvent) error
}

// CommandRejectionEvent describes a refused operator command.
type CommandRejectionEvent struct {
	Command string
	CartID  string
	Reason  string
	Error   string
	Time    time.Time
}

// CommandRejectionRecorder records refused commands.
type CommandRejectionRecorder interface {
	RecordCommandRejection(ev CommandRejectionEvent) error
}

// TickSample summarizes the pool after a tick.
type TickSample struct {
	Tick    uint64
	Idle    int
	Moving  int
	Pending int
	Active  int
	Time    time.Time
}

// TickRecorder records tick samples.
type TickRecorder interface {
	RecordTick(s TickSample) error
}

// EquipmentStatusEvent reports a machine status change.
type EquipmentStatusEvent struct {
	Equipment model.Equipment
	Time      time.Time
}

// EquipmentRecorder records machine status changes.
type EquipmentRecorder interface {
	RecordEquipmentStatus(ev EquipmentStatusEvent) error
}

// NopSink implements MetricsSink and every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordDelivery(DeliveryEvent) error { return nil }

func (NopSink) RecordCartState(CartStateEvent) error               { return nil }
func (NopSink) RecordCommandRejection(CommandRejectionEvent) error { return nil }
func (NopSink) RecordTick(TickSample) error                        { return nil }
func (NopSink) RecordEquipmentStatus(EquipmentStatusEvent) error   { return nil }
