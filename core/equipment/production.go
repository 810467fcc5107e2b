package equipment

import (
	"fmt"
	"sync"
	"time"
)

// DefaultRate is the factory output in units per minute.
const DefaultRate = 50

// Stats is a snapshot of the production counter.
type Stats struct {
	TotalProduced float64    `json:"total_produced"`
	CurrentRate   float64    `json:"current_rate"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	Duration      string     `json:"duration"`
	Efficiency    float64    `json:"efficiency"`
	Producing     bool       `json:"producing"`
}

// Counter accumulates factory output while production runs. Update is
// expected once per second of simulated time.
type Counter struct {
	mu        sync.Mutex
	rate      float64
	producing bool
	startedAt *time.Time
	total     float64
	onUpdate  func()
}

// NewCounter returns a stopped counter. A non-positive rate uses DefaultRate.
// onUpdate, when set, runs on every Update while producing.
func NewCounter(rate float64, onUpdate func()) *Counter {
	if rate <= 0 {
		rate = DefaultRate
	}
	return &Counter{rate: rate, onUpdate: onUpdate}
}

// Start begins production at now. It is a no-op when already producing.
func (c *Counter) Start(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.producing {
		return false
	}
	c.producing = true
	c.startedAt = &now
	return true
}

// Stop halts production. It is a no-op when already stopped.
func (c *Counter) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.producing {
		return false
	}
	c.producing = false
	return true
}

// Producing reports whether production runs.
func (c *Counter) Producing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.producing
}

// Update accounts for one second of production.
func (c *Counter) Update() {
	c.mu.Lock()
	if !c.producing {
		c.mu.Unlock()
		return
	}
	c.total += c.rate / 60
	fn := c.onUpdate
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Reset clears the accumulated total and the start time.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total = 0
	c.startedAt = nil
}

// Stats reports the counter state as seen at now.
func (c *Counter) Stats(now time.Time) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{
		TotalProduced: c.total,
		Duration:      FormatDuration(c.startedAt, now),
		Producing:     c.producing,
	}
	if c.startedAt != nil {
		t := *c.startedAt
		s.StartedAt = &t
	}
	if c.producing {
		s.CurrentRate = c.rate
		s.Efficiency = 85
	}
	return s
}

// FormatDuration renders elapsed whole minutes and seconds since start.
func FormatDuration(start *time.Time, now time.Time) string {
	if start == nil {
		return "not started"
	}
	secs := int(now.Sub(*start) / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%dm%ds", secs/60, secs%60)
}
