package engine

import (
	"fmt"
	"math/rand"
	"time"
)

// Cell identifies one parking slot by its 0-based (bay, slot) pair.
type Cell struct {
	Bay  int
	Slot int
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Bay, c.Slot)
}

// Reservation is the occupancy record attached to an occupied cell.
// DepartureTime is strictly after ArrivalTime.
type Reservation struct {
	VehicleID     string    `json:"vehicle_id"`
	ArrivalTime   time.Time `json:"arrival_time"`
	DepartureTime time.Time `json:"departure_time"`
	PriorityLevel int       `json:"priority_level"`
}

// Expired reports whether the reservation's departure time has passed at now.
func (r Reservation) Expired(now time.Time) bool {
	return !now.Before(r.DepartureTime)
}

// OccupancyGrid owns the full set of cells and their reservations. It is the
// single source of truth for "is this cell free": the only write paths are
// Occupy, Release and Reset. A grid instance is not safe for concurrent
// mutation; callers serving concurrent requests must serialize decide+occupy
// against it (see server.AllocationService).
type OccupancyGrid struct {
	facility     Facility
	reservations []*Reservation // action-id indexed; nil = free
	occupied     int
	rng          *rand.Rand
}

// NewOccupancyGrid creates an empty grid for the facility. The seed drives
// Reset's pre-fill cell choice so seeded starting states are reproducible.
func NewOccupancyGrid(facility Facility, seed int64) *OccupancyGrid {
	return &OccupancyGrid{
		facility:     facility,
		reservations: make([]*Reservation, facility.Capacity()),
		rng:          rand.New(rand.NewSource(seed)),
	}
}

// Facility returns the grid's immutable shape.
func (g *OccupancyGrid) Facility() Facility {
	return g.facility
}

// Reset clears every reservation, then pre-occupies a pseudo-random subset of
// cells with synthetic reservations so the occupied fraction approximates
// fillRatio. Which cells are chosen depends only on the grid's seed.
func (g *OccupancyGrid) Reset(fillRatio float64) error {
	if fillRatio < 0 || fillRatio > 1 {
		return fmt.Errorf("initial fill ratio must be in [0,1], got %g", fillRatio)
	}
	for i := range g.reservations {
		g.reservations[i] = nil
	}
	g.occupied = 0

	capacity := g.facility.Capacity()
	prefill := int(fillRatio * float64(capacity))
	if prefill == 0 {
		return nil
	}
	now := time.Now()
	for i, action := range g.rng.Perm(capacity)[:prefill] {
		g.reservations[action] = &Reservation{
			VehicleID:     fmt.Sprintf("PREFILL-%03d", i),
			ArrivalTime:   now,
			DepartureTime: now.Add(24 * time.Hour),
			PriorityLevel: 0,
		}
		g.occupied++
	}
	return nil
}

// IsFree reports whether the cell holds no reservation. Out-of-range cells
// are never free.
func (g *OccupancyGrid) IsFree(bay, slot int) bool {
	if !g.facility.Contains(bay, slot) {
		return false
	}
	return g.reservations[g.facility.ActionID(bay, slot)] == nil
}

// Occupy records a reservation on a free cell. It fails with ErrConflict if
// the cell is already occupied and leaves the grid unchanged on any failure.
func (g *OccupancyGrid) Occupy(bay, slot int, r Reservation) error {
	if !g.facility.Contains(bay, slot) {
		return fmt.Errorf("occupy %s: %w", Cell{bay, slot}, ErrOutOfRange)
	}
	action := g.facility.ActionID(bay, slot)
	if g.reservations[action] != nil {
		return fmt.Errorf("occupy %s: %w", Cell{bay, slot}, ErrConflict)
	}
	res := r
	g.reservations[action] = &res
	g.occupied++
	return nil
}

// Release clears a cell's reservation. Releasing a free cell fails with
// ErrNotOccupied.
func (g *OccupancyGrid) Release(bay, slot int) error {
	if !g.facility.Contains(bay, slot) {
		return fmt.Errorf("release %s: %w", Cell{bay, slot}, ErrOutOfRange)
	}
	action := g.facility.ActionID(bay, slot)
	if g.reservations[action] == nil {
		return fmt.Errorf("release %s: %w", Cell{bay, slot}, ErrNotOccupied)
	}
	g.reservations[action] = nil
	g.occupied--
	return nil
}

// FreeCells returns every free cell in bay-major, slot-minor order. The
// sequential policy relies on this ordering for deterministic scans.
func (g *OccupancyGrid) FreeCells() []Cell {
	free := make([]Cell, 0, g.facility.Capacity()-g.occupied)
	for bay := 0; bay < g.facility.NumBays; bay++ {
		for slot := 0; slot < g.facility.SlotsPerBay; slot++ {
			if g.reservations[g.facility.ActionID(bay, slot)] == nil {
				free = append(free, Cell{Bay: bay, Slot: slot})
			}
		}
	}
	return free
}

// OccupiedCount returns the number of occupied cells.
func (g *OccupancyGrid) OccupiedCount() int {
	return g.occupied
}

// OccupancyRatio returns occupied/capacity in [0,1].
func (g *OccupancyGrid) OccupancyRatio() float64 {
	return float64(g.occupied) / float64(g.facility.Capacity())
}

// Snapshot returns a read-only copy of the current reservation map, keyed by
// cell. Mutating the result does not affect the grid.
func (g *OccupancyGrid) Snapshot() map[Cell]Reservation {
	snap := make(map[Cell]Reservation, g.occupied)
	for action, res := range g.reservations {
		if res != nil {
			snap[g.facility.CellOf(action)] = *res
		}
	}
	return snap
}
