package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ValueTable is a trained state-action value table: Values[state][action]
// holds the learned desirability of assigning the flattened (bay, slot)
// action while the facility is in the discretized occupancy state. The
// engine only reads it; training lives elsewhere.
type ValueTable struct {
	states  int
	actions int
	values  [][]float64
}

// NewValueTable wraps a rectangular values matrix.
func NewValueTable(values [][]float64) (*ValueTable, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("value table has no states")
	}
	actions := len(values[0])
	if actions == 0 {
		return nil, fmt.Errorf("value table has no actions")
	}
	for s, row := range values {
		if len(row) != actions {
			return nil, fmt.Errorf("value table row %d has %d actions, want %d", s, len(row), actions)
		}
	}
	return &ValueTable{states: len(values), actions: actions, values: values}, nil
}

// NewZeroValueTable returns an all-zero table, the neutral default when no
// trained table is supplied.
func NewZeroValueTable(states, actions int) *ValueTable {
	values := make([][]float64, states)
	for s := range values {
		values[s] = make([]float64, actions)
	}
	vt, _ := NewValueTable(values)
	return vt
}

// valueTableFile is the on-disk YAML shape of a trained table.
type valueTableFile struct {
	Values [][]float64 `yaml:"values"`
}

// LoadValueTable reads and parses a YAML value table file.
func LoadValueTable(path string) (*ValueTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading value table: %w", err)
	}
	var file valueTableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing value table: %w", err)
	}
	return NewValueTable(file.Values)
}

// States returns the number of discretized occupancy states.
func (vt *ValueTable) States() int { return vt.states }

// Actions returns the number of flattened (bay, slot) actions.
func (vt *ValueTable) Actions() int { return vt.actions }

// StateOf discretizes the grid's occupancy ratio into one of the table's
// states: state = floor(ratio * states), clamped so a full grid maps to the
// last state.
func (vt *ValueTable) StateOf(grid *OccupancyGrid) int {
	state := int(grid.OccupancyRatio() * float64(vt.states))
	if state >= vt.states {
		state = vt.states - 1
	}
	return state
}

// Value looks up Q[state][action]. Out-of-range lookups return 0 so a table
// trained for a smaller facility degrades to neutral rather than panicking.
func (vt *ValueTable) Value(state, action int) float64 {
	if state < 0 || state >= vt.states || action < 0 || action >= vt.actions {
		return 0
	}
	return vt.values[state][action]
}
