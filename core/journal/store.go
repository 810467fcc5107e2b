package journal

import (
	"context"
	"time"

	"github.com/kilianp07/factorysim/core/model"
)

// Record kinds.
const (
	KindDelivery  = "delivery"
	KindCart      = "cart"
	KindRejection = "rejection"
)

// Record is one journal line: a delivery transition, a cart movement event
// or a refused command.
type Record struct {
	Timestamp    time.Time           `json:"timestamp"`
	Kind         string              `json:"kind"`
	Action       string              `json:"action"`
	CartID       string              `json:"cart_id,omitempty"`
	DeliveryID   int64               `json:"delivery_id,omitempty"`
	DeliveryType string              `json:"delivery_type,omitempty"`
	Status       string              `json:"status,omitempty"`
	From         *model.GridPosition `json:"from,omitempty"`
	To           *model.GridPosition `json:"to,omitempty"`
	Position     *model.GridPosition `json:"position,omitempty"`
	Tick         uint64              `json:"tick,omitempty"`
	Error        string              `json:"error,omitempty"`
}

// Query defines filters for retrieving records. Zero values match anything.
type Query struct {
	Start      time.Time
	End        time.Time
	CartID     string
	DeliveryID int64
	Kind       string
	Action     string
	// Limit keeps the most recent matches when positive.
	Limit int
}

// Match reports whether r satisfies every filter of q except Limit.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.CartID != "" && r.CartID != q.CartID {
		return false
	}
	if q.DeliveryID != 0 && r.DeliveryID != q.DeliveryID {
		return false
	}
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	if q.Action != "" && r.Action != q.Action {
		return false
	}
	return true
}

func (q Query) limit(res []Record) []Record {
	if q.Limit > 0 && len(res) > q.Limit {
		return res[len(res)-q.Limit:]
	}
	return res
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}
