package model

// EquipmentStatus is the operating state of a production machine.
type EquipmentStatus string

const (
	EquipmentIdle        EquipmentStatus = "idle"
	EquipmentRunning     EquipmentStatus = "running"
	EquipmentMaintenance EquipmentStatus = "maintenance"
	EquipmentError       EquipmentStatus = "error"
)

// Equipment is a production machine at a fixed grid coordinate. Rates are
// expressed in units per minute.
type Equipment struct {
	ID                string          `json:"id" yaml:"id"`
	Name              string          `json:"name" yaml:"name"`
	Workshop          string          `json:"workshop" yaml:"workshop"`
	CurrentProduction float64         `json:"current_production" yaml:"-"`
	TotalProduced     float64         `json:"total_produced" yaml:"-"`
	MaxProduction     float64         `json:"max_production" yaml:"max_production"`
	Status            EquipmentStatus `json:"status" yaml:"-"`
	Position          GridPosition    `json:"position" yaml:"position"`
}

// WorkshopTotal aggregates the equipment of one workshop.
type WorkshopTotal struct {
	Name              string  `json:"name"`
	CurrentProduction float64 `json:"current_production"`
	TotalProduced     float64 `json:"total_produced"`
	MaxProduction     float64 `json:"max_production"`
	EquipmentCount    int     `json:"equipment_count"`
	RunningCount      int     `json:"running_count"`
}

// DefaultEquipment returns the factory's standard machine layout.
func DefaultEquipment() []Equipment {
	return []Equipment{
		{ID: "eq1", Name: "Production Line A", Workshop: "Production Workshop", MaxProduction: 120, Status: EquipmentIdle, Position: Pos(600, 100)},
		{ID: "eq2", Name: "Production Line B", Workshop: "Production Workshop", MaxProduction: 160, Status: EquipmentIdle, Position: Pos(800, 450)},
		{ID: "eq3", Name: "Packaging Machine", Workshop: "Packaging Workshop", MaxProduction: 80, Status: EquipmentIdle, Position: Pos(700, 500)},
		{ID: "eq4", Name: "QC Station", Workshop: "Quality Workshop", MaxProduction: 100, Status: EquipmentIdle, Position: Pos(750, 220)},
	}
}

// DefaultWarehouses returns the dropoff coordinates of the storage area.
func DefaultWarehouses() []GridPosition {
	return []GridPosition{Pos(200, 200), Pos(300, 300), Pos(400, 400)}
}
