package engine

import (
	"errors"
	"testing"
	"time"
)

func testFacility(t *testing.T, bays, slots int) Facility {
	t.Helper()
	f, err := NewFacility(bays, slots)
	if err != nil {
		t.Fatalf("NewFacility(%d,%d): %v", bays, slots, err)
	}
	return f
}

func testReservation(id string) Reservation {
	arrival := time.Date(2025, 6, 30, 9, 0, 0, 0, time.UTC)
	return Reservation{
		VehicleID:     id,
		ArrivalTime:   arrival,
		DepartureTime: arrival.Add(2 * time.Hour),
	}
}

func TestOccupancyGrid_OccupyThenRelease(t *testing.T) {
	// GIVEN an empty 2x2 grid
	grid := NewOccupancyGrid(testFacility(t, 2, 2), 1)

	// WHEN a cell is occupied
	if err := grid.Occupy(1, 0, testReservation("KA-01")); err != nil {
		t.Fatalf("Occupy: unexpected error: %v", err)
	}

	// THEN the cell is no longer free until the matching release
	if grid.IsFree(1, 0) {
		t.Errorf("IsFree(1,0): got true after Occupy, want false")
	}
	if grid.OccupiedCount() != 1 {
		t.Errorf("OccupiedCount: got %d, want 1", grid.OccupiedCount())
	}
	if err := grid.Release(1, 0); err != nil {
		t.Fatalf("Release: unexpected error: %v", err)
	}
	if !grid.IsFree(1, 0) {
		t.Errorf("IsFree(1,0): got false after Release, want true")
	}
}

func TestOccupancyGrid_DoubleOccupyConflict(t *testing.T) {
	// GIVEN a grid with one occupied cell
	grid := NewOccupancyGrid(testFacility(t, 2, 2), 1)
	if err := grid.Occupy(0, 1, testReservation("KA-01")); err != nil {
		t.Fatalf("first Occupy: %v", err)
	}
	before := grid.Snapshot()

	// WHEN the same cell is occupied again
	err := grid.Occupy(0, 1, testReservation("KA-02"))

	// THEN the second call fails with ErrConflict and nothing changed
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("second Occupy: got %v, want ErrConflict", err)
	}
	after := grid.Snapshot()
	if len(after) != len(before) {
		t.Errorf("Snapshot size changed: got %d, want %d", len(after), len(before))
	}
	if after[Cell{0, 1}].VehicleID != "KA-01" {
		t.Errorf("reservation holder: got %s, want KA-01", after[Cell{0, 1}].VehicleID)
	}
}

func TestOccupancyGrid_ReleaseFreeCell(t *testing.T) {
	// GIVEN an empty grid
	grid := NewOccupancyGrid(testFacility(t, 2, 2), 1)

	// WHEN a free cell is released
	err := grid.Release(0, 0)

	// THEN it fails with ErrNotOccupied
	if !errors.Is(err, ErrNotOccupied) {
		t.Errorf("Release on free cell: got %v, want ErrNotOccupied", err)
	}
}

func TestOccupancyGrid_OutOfRange(t *testing.T) {
	grid := NewOccupancyGrid(testFacility(t, 2, 2), 1)

	if err := grid.Occupy(2, 0, testReservation("KA-01")); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Occupy(2,0): got %v, want ErrOutOfRange", err)
	}
	if err := grid.Release(0, 5); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Release(0,5): got %v, want ErrOutOfRange", err)
	}
	if grid.IsFree(-1, 0) {
		t.Errorf("IsFree(-1,0): got true, want false")
	}
}

func TestOccupancyGrid_FreeCellsBayMajorOrder(t *testing.T) {
	// GIVEN a 2x3 grid with one occupied cell
	grid := NewOccupancyGrid(testFacility(t, 2, 3), 1)
	if err := grid.Occupy(0, 1, testReservation("KA-01")); err != nil {
		t.Fatalf("Occupy: %v", err)
	}

	// WHEN the free cells are listed
	got := grid.FreeCells()

	// THEN order is bay-major, slot-minor with the occupied cell skipped
	want := []Cell{{0, 0}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}
	if len(got) != len(want) {
		t.Fatalf("FreeCells: got %d cells, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FreeCells[%d]: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestOccupancyGrid_ResetFillRatio(t *testing.T) {
	// GIVEN a 4x10 grid
	grid := NewOccupancyGrid(testFacility(t, 4, 10), 7)

	// WHEN it is reset to 30% fill
	if err := grid.Reset(0.3); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	// THEN 12 of 40 cells are occupied
	if grid.OccupiedCount() != 12 {
		t.Errorf("OccupiedCount after Reset(0.3): got %d, want 12", grid.OccupiedCount())
	}

	// AND another grid with the same seed pre-occupies the same cells
	other := NewOccupancyGrid(testFacility(t, 4, 10), 7)
	if err := other.Reset(0.3); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	snapA, snapB := grid.Snapshot(), other.Snapshot()
	for cell := range snapA {
		if _, ok := snapB[cell]; !ok {
			t.Errorf("cell %s occupied with seed 7 in one grid but not the other", cell)
		}
	}
}

func TestOccupancyGrid_ResetClearsPreviousState(t *testing.T) {
	grid := NewOccupancyGrid(testFacility(t, 2, 2), 1)
	if err := grid.Occupy(0, 0, testReservation("KA-01")); err != nil {
		t.Fatalf("Occupy: %v", err)
	}

	if err := grid.Reset(0); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	if grid.OccupiedCount() != 0 {
		t.Errorf("OccupiedCount after Reset(0): got %d, want 0", grid.OccupiedCount())
	}
	if !grid.IsFree(0, 0) {
		t.Errorf("IsFree(0,0) after Reset(0): got false, want true")
	}
}

func TestOccupancyGrid_ResetRejectsBadRatio(t *testing.T) {
	grid := NewOccupancyGrid(testFacility(t, 2, 2), 1)
	if err := grid.Reset(1.5); err == nil {
		t.Errorf("Reset(1.5): got nil error, want range error")
	}
	if err := grid.Reset(-0.1); err == nil {
		t.Errorf("Reset(-0.1): got nil error, want range error")
	}
}

func TestOccupancyGrid_SnapshotIsACopy(t *testing.T) {
	// GIVEN a grid with one reservation
	grid := NewOccupancyGrid(testFacility(t, 2, 2), 1)
	if err := grid.Occupy(0, 0, testReservation("KA-01")); err != nil {
		t.Fatalf("Occupy: %v", err)
	}

	// WHEN the snapshot is mutated
	snap := grid.Snapshot()
	delete(snap, Cell{0, 0})

	// THEN the grid is unaffected
	if grid.IsFree(0, 0) {
		t.Errorf("grid mutated through snapshot")
	}
}
