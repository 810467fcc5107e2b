package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/factorysim/core/model"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	for i := int64(1); i <= 3; i++ {
		q.Enqueue(&model.Delivery{ID: i, Status: model.DeliveryAssigned, AssignedCart: "cart-1"})
	}
	require.Equal(t, 3, q.Len())

	head, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, int64(1), head.ID)
	assert.Equal(t, model.DeliveryPending, head.Status)
	assert.Empty(t, head.AssignedCart)

	for want := int64(1); want <= 3; want++ {
		d, ok := q.DequeueFirst()
		require.True(t, ok)
		assert.Equal(t, want, d.ID)
	}
	_, ok = q.DequeueFirst()
	assert.False(t, ok)
	_, ok = q.Peek()
	assert.False(t, ok)
}

func TestQueueRemoveKeepsOrder(t *testing.T) {
	q := NewQueue()
	for i := int64(1); i <= 4; i++ {
		q.Enqueue(&model.Delivery{ID: i})
	}
	assert.True(t, q.Remove(2))
	assert.False(t, q.Remove(2))

	var ids []int64
	for _, d := range q.List() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []int64{1, 3, 4}, ids)
}

func TestQueueListIsCopy(t *testing.T) {
	q := NewQueue()
	q.Enqueue(&model.Delivery{ID: 7})
	list := q.List()
	list[0].Status = model.DeliveryCompleted
	head, _ := q.Peek()
	assert.Equal(t, model.DeliveryPending, head.Status)
}

func TestQueueClear(t *testing.T) {
	q := NewQueue()
	q.Enqueue(&model.Delivery{ID: 1})
	q.Enqueue(&model.Delivery{ID: 2})
	dropped := q.Clear()
	assert.Len(t, dropped, 2)
	assert.Equal(t, 0, q.Len())
}

func TestSequenceSource(t *testing.T) {
	s := &SequenceSource{Values: []int{5, -2, 1}}
	assert.Equal(t, 1, s.Intn(4))
	assert.Equal(t, 2, s.Intn(4))
	assert.Equal(t, 1, s.Intn(4))
	assert.Equal(t, 1, s.Intn(4))
	assert.Equal(t, 0, (&SequenceSource{}).Intn(3))
}
