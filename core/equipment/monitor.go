package equipment

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/kilianp07/factorysim/core/logger"
	"github.com/kilianp07/factorysim/core/model"
)

// Random draws uniformly in [0, 1). *math/rand.Rand satisfies it.
type Random interface {
	Float64() float64
}

// StatusListener is called with a copy of a machine whose status changed.
type StatusListener func(model.Equipment)

// Monitor tracks production of every machine. It is safe for concurrent use.
type Monitor struct {
	mu        sync.RWMutex
	items     []model.Equipment
	rng       Random
	listeners []StatusListener
	log       logger.Logger
}

// NewMonitor creates a monitor over the given machines, all idle. An empty
// list falls back to model.DefaultEquipment.
func NewMonitor(items []model.Equipment, rng Random, log logger.Logger) *Monitor {
	if len(items) == 0 {
		items = model.DefaultEquipment()
	}
	cp := append([]model.Equipment(nil), items...)
	for i := range cp {
		cp[i].Status = model.EquipmentIdle
		cp[i].CurrentProduction = 0
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Monitor{items: cp, rng: rng, log: logger.OrNop(log)}
}

// OnStatusChange registers fn for every machine status transition.
func (m *Monitor) OnStatusChange(fn StatusListener) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Equipment returns a copy of the machines in catalog order.
func (m *Monitor) Equipment() []model.Equipment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Equipment(nil), m.items...)
}

// Start puts every machine in production at 70 to 100 percent of its
// maximum rate, rounded down.
func (m *Monitor) Start() {
	m.transition(func(e *model.Equipment) {
		e.Status = model.EquipmentRunning
		e.CurrentProduction = math.Floor(e.MaxProduction * (0.7 + m.rng.Float64()*0.3))
	})
	m.log.Infof("equipment production started")
}

// Stop idles every machine.
func (m *Monitor) Stop() {
	m.transition(func(e *model.Equipment) {
		e.Status = model.EquipmentIdle
		e.CurrentProduction = 0
	})
	m.log.Infof("equipment production stopped")
}

// SetStatus forces the status of one machine. Machines leaving the running
// state stop producing.
func (m *Monitor) SetStatus(id string, status model.EquipmentStatus) bool {
	found := false
	m.transition(func(e *model.Equipment) {
		if e.ID != id {
			return
		}
		found = true
		e.Status = status
		if status != model.EquipmentRunning {
			e.CurrentProduction = 0
		}
	})
	return found
}

// Update adds one second of output, a sixtieth of the per minute rate, to
// every running machine.
func (m *Monitor) Update() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].Status == model.EquipmentRunning {
			m.items[i].TotalProduced += m.items[i].CurrentProduction / 60
		}
	}
}

// Reset clears production counters without touching statuses.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		m.items[i].TotalProduced = 0
		m.items[i].CurrentProduction = 0
	}
}

// Efficiency returns the current rate of a machine as a percentage of its
// maximum, or 0 when it is unknown.
func (m *Monitor) Efficiency(id string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.items {
		if e.ID == id {
			return percent(e.CurrentProduction, e.MaxProduction)
		}
	}
	return 0
}

// WorkshopTotals aggregates machines by workshop in first seen order.
func (m *Monitor) WorkshopTotals() []model.WorkshopTotal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.WorkshopTotal
	index := map[string]int{}
	for _, e := range m.items {
		i, ok := index[e.Workshop]
		if !ok {
			i = len(out)
			index[e.Workshop] = i
			out = append(out, model.WorkshopTotal{Name: e.Workshop})
		}
		w := &out[i]
		w.CurrentProduction += e.CurrentProduction
		w.TotalProduced += e.TotalProduced
		w.MaxProduction += e.MaxProduction
		w.EquipmentCount++
		if e.Status == model.EquipmentRunning {
			w.RunningCount++
		}
	}
	return out
}

// WorkshopEfficiency returns the current rate of a workshop as a percentage
// of its combined maximum.
func (m *Monitor) WorkshopEfficiency(name string) float64 {
	for _, w := range m.WorkshopTotals() {
		if w.Name == name {
			return percent(w.CurrentProduction, w.MaxProduction)
		}
	}
	return 0
}

func (m *Monitor) transition(apply func(*model.Equipment)) {
	m.mu.Lock()
	var changed []model.Equipment
	for i := range m.items {
		before := m.items[i].Status
		apply(&m.items[i])
		if m.items[i].Status != before {
			changed = append(changed, m.items[i])
		}
	}
	listeners := append([]StatusListener(nil), m.listeners...)
	m.mu.Unlock()

	for _, e := range changed {
		m.log.Debugw("equipment status", map[string]any{"equipment_id": e.ID, "status": string(e.Status)})
		for _, fn := range listeners {
			fn(e)
		}
	}
}

func percent(v, max float64) float64 {
	if max == 0 {
		return 0
	}
	return v / max * 100
}
