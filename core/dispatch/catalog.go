package dispatch

import "github.com/kilianp07/factorysim/core/model"

// RandomSource picks uniformly in [0, n). *math/rand.Rand satisfies it.
type RandomSource interface {
	Intn(n int) int
}

// EquipmentSource lists the machines whose coordinates serve as pickup points.
type EquipmentSource interface {
	Equipment() []model.Equipment
}

// StaticCatalog is a fixed EquipmentSource.
type StaticCatalog []model.Equipment

// Equipment returns a copy of the catalog.
func (s StaticCatalog) Equipment() []model.Equipment {
	return append([]model.Equipment(nil), s...)
}

// SequenceSource replays a fixed sequence of picks, wrapping around. Each
// value is reduced modulo n.
type SequenceSource struct {
	Values []int
	next   int
}

// Intn returns the next value of the sequence modulo n.
func (s *SequenceSource) Intn(n int) int {
	if len(s.Values) == 0 || n <= 0 {
		return 0
	}
	v := s.Values[s.next%len(s.Values)]
	s.next++
	if v < 0 {
		v = -v
	}
	return v % n
}
