package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/factorysim/core/model"
)

// Step actions.
const (
	ActionDeploy    = "deploy"
	ActionDeployAll = "deploy_all"
	ActionRecall    = "recall"
	ActionCommand   = "command"
	ActionReset     = "reset"
	ActionTick      = "tick"
)

type CartDef struct {
	ID    string  `yaml:"id"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Speed float64 `yaml:"speed"`
}

func (c CartDef) ToModel() *model.Cart {
	return model.NewCart(c.ID, model.Pos(c.X, c.Y), c.Speed)
}

// CartExpect checks one cart. Nil fields are not checked.
type CartExpect struct {
	Status   string   `yaml:"status"`
	X        *float64 `yaml:"x"`
	Y        *float64 `yaml:"y"`
	PathLen  *int     `yaml:"path_len"`
	HasCargo *bool    `yaml:"has_cargo"`
}

// Expect checks the pool after a step. Events holds cumulative delivery
// transition counts by action.
type Expect struct {
	Idle    *int                  `yaml:"idle"`
	Pending *int                  `yaml:"pending"`
	Active  *int                  `yaml:"active"`
	Carts   map[string]CartExpect `yaml:"carts"`
	Events  map[string]int        `yaml:"events"`
}

type Step struct {
	Action string   `yaml:"action"`
	Cart   string   `yaml:"cart,omitempty"`
	X      *float64 `yaml:"x,omitempty"`
	Y      *float64 `yaml:"y,omitempty"`
	Ticks  int      `yaml:"ticks,omitempty"`
	// Error is the expected rejection reason, empty for success.
	Error  string  `yaml:"error,omitempty"`
	Expect *Expect `yaml:"expect,omitempty"`
}

type Scenario struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Seed        int64     `yaml:"seed"`
	Carts       []CartDef `yaml:"carts"`
	Steps       []Step    `yaml:"steps"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if err := sc.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &sc, nil
}

func (sc *Scenario) validate() error {
	if sc.Name == "" {
		return fmt.Errorf("scenario without name")
	}
	for i, st := range sc.Steps {
		switch st.Action {
		case ActionDeploy, ActionDeployAll, ActionRecall, ActionReset, ActionCommand:
		case ActionTick:
			if st.Ticks <= 0 {
				return fmt.Errorf("step %d: tick needs a positive count", i)
			}
		default:
			return fmt.Errorf("step %d: unknown action %q", i, st.Action)
		}
	}
	return nil
}
