package dispatch

import "github.com/kilianp07/factorysim/core/model"

// Queue holds pending deliveries in creation order. A delivery is pending
// exactly while it sits in the queue.
type Queue struct {
	items []*model.Delivery
}

// NewQueue returns an empty queue.
func NewQueue() *Queue { return &Queue{} }

// Enqueue appends d and marks it pending.
func (q *Queue) Enqueue(d *model.Delivery) {
	d.Status = model.DeliveryPending
	d.AssignedCart = ""
	q.items = append(q.items, d)
}

// DequeueFirst removes and returns the oldest delivery.
func (q *Queue) DequeueFirst() (*model.Delivery, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	d := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return d, true
}

// Peek returns the oldest delivery without removing it.
func (q *Queue) Peek() (*model.Delivery, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	return q.items[0], true
}

// Remove drops the delivery with the given id and reports whether it was queued.
func (q *Queue) Remove(id int64) bool {
	for i, d := range q.items {
		if d.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of pending deliveries.
func (q *Queue) Len() int { return len(q.items) }

// List returns copies of the pending deliveries, oldest first.
func (q *Queue) List() []model.Delivery {
	out := make([]model.Delivery, len(q.items))
	for i, d := range q.items {
		out[i] = *d
	}
	return out
}

// Clear empties the queue and returns what was pending.
func (q *Queue) Clear() []*model.Delivery {
	items := q.items
	q.items = nil
	return items
}
