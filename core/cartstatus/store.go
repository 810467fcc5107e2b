package cartstatus

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/factorysim/core/model"
)

// LastAssignment summarizes the most recent delivery handed to a cart.
type LastAssignment struct {
	DeliveryID int64              `json:"delivery_id"`
	Type       string             `json:"type"`
	From       model.GridPosition `json:"from"`
	To         model.GridPosition `json:"to"`
	Timestamp  time.Time          `json:"timestamp"`
}

// Status captures the last known state of a cart.
type Status struct {
	CartID         string             `json:"cart_id"`
	CurrentStatus  string             `json:"current_status"`
	Position       model.GridPosition `json:"position"`
	Completed      int64              `json:"completed"`
	LastAssignment *LastAssignment    `json:"last_assignment,omitempty"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// Filter restricts List results. Empty fields match anything.
type Filter struct {
	Status string
}

func (f Filter) match(st Status) bool {
	return f.Status == "" || st.CurrentStatus == f.Status
}

// Store keeps one Status per cart.
type Store interface {
	Get(ctx context.Context, id string) (Status, bool, error)
	Set(ctx context.Context, st Status) error
	List(ctx context.Context, f Filter) ([]Status, error)
	IncrementCompleted(ctx context.Context, id string) (int64, error)
}

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Status
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]Status{}}
}

func (s *MemoryStore) Get(_ context.Context, id string) (Status, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.data[id]
	return st, ok, nil
}

// Set stores st. The completed counter is owned by IncrementCompleted and
// is kept from the previous value.
func (s *MemoryStore) Set(_ context.Context, st Status) error {
	s.mu.Lock()
	st.Completed = s.data[st.CartID].Completed
	s.data[st.CartID] = st
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) IncrementCompleted(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.data[id]
	st.CartID = id
	st.Completed++
	s.data[id] = st
	return st.Completed, nil
}

func (s *MemoryStore) List(_ context.Context, f Filter) ([]Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Status, 0, len(s.data))
	for _, st := range s.data {
		if f.match(st) {
			res = append(res, st)
		}
	}
	sortByID(res)
	return res, nil
}

func sortByID(res []Status) {
	sort.Slice(res, func(i, j int) bool { return res[i].CartID < res[j].CartID })
}
