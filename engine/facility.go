package engine

import "fmt"

// Facility is the immutable shape of a parking facility: NumBays rows of
// SlotsPerBay slots each. It is fixed for the lifetime of a grid instance.
type Facility struct {
	NumBays     int `yaml:"num_bays"`
	SlotsPerBay int `yaml:"slots_per_bay"`
}

// NewFacility validates the shape and returns a Facility.
func NewFacility(numBays, slotsPerBay int) (Facility, error) {
	f := Facility{NumBays: numBays, SlotsPerBay: slotsPerBay}
	if err := f.Validate(); err != nil {
		return Facility{}, err
	}
	return f, nil
}

// Validate checks both dimensions are at least 1.
func (f Facility) Validate() error {
	if f.NumBays < 1 {
		return fmt.Errorf("num_bays must be >= 1, got %d", f.NumBays)
	}
	if f.SlotsPerBay < 1 {
		return fmt.Errorf("slots_per_bay must be >= 1, got %d", f.SlotsPerBay)
	}
	return nil
}

// Capacity returns the total number of cells.
func (f Facility) Capacity() int {
	return f.NumBays * f.SlotsPerBay
}

// Contains reports whether the 0-based (bay, slot) pair lies inside the shape.
func (f Facility) Contains(bay, slot int) bool {
	return bay >= 0 && bay < f.NumBays && slot >= 0 && slot < f.SlotsPerBay
}

// ActionID flattens a 0-based (bay, slot) pair into a single action index,
// bay-major. This is the action id the value table is keyed by.
func (f Facility) ActionID(bay, slot int) int {
	return bay*f.SlotsPerBay + slot
}

// CellOf is the inverse of ActionID.
func (f Facility) CellOf(action int) Cell {
	return Cell{Bay: action / f.SlotsPerBay, Slot: action % f.SlotsPerBay}
}
