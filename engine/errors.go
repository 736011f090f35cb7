package engine

import "errors"

// Error taxonomy for the allocation engine. Capacity exhaustion is not an
// error: policies report it as a Rejected decision.
var (
	// ErrInvalidRequest marks a malformed vehicle request, e.g. a time
	// window whose arrival is not strictly before its departure.
	ErrInvalidRequest = errors.New("invalid vehicle request")

	// ErrConflict marks an attempt to occupy an already-occupied cell.
	// Seeing it means a caller bypassed the single-writer discipline.
	ErrConflict = errors.New("cell already occupied")

	// ErrNotOccupied marks a release of a cell that holds no reservation.
	ErrNotOccupied = errors.New("cell not occupied")

	// ErrOutOfRange marks a cell reference outside the facility shape.
	ErrOutOfRange = errors.New("cell out of range")
)
