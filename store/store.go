// Package store persists allocation records. The engine treats it as an
// opaque five-operation table: Create, Get, Update, List, Clear.
package store

import (
	"errors"
	"time"
)

// ErrNotFound marks a lookup of a record id the store does not hold.
var ErrNotFound = errors.New("allocation record not found")

// Record is one persisted allocation: an AllocationDecision plus the request
// metadata the external API reports. Bay and slot are 1-based.
type Record struct {
	ID            string    `json:"id"`
	VehicleID     string    `json:"vehicle_id"`
	VehicleClass  int       `json:"vehicle_class"`
	PlateType     int       `json:"plate_type"`
	BayAssigned   int       `json:"bay_assigned"`
	SlotAssigned  int       `json:"slot_assigned"`
	Score         float64   `json:"allocation_score"`
	AllocatedAt   time.Time `json:"allocation_time"`
	DepartureTime time.Time `json:"departure_time"`
	PriorityLevel int       `json:"priority_level"`
	IsActive      bool      `json:"is_active"`
}

// Filter narrows List results. Zero value matches everything.
type Filter struct {
	ActiveOnly bool
	VehicleID  string
}

func (f Filter) matches(r Record) bool {
	if f.ActiveOnly && !r.IsActive {
		return false
	}
	if f.VehicleID != "" && r.VehicleID != f.VehicleID {
		return false
	}
	return true
}

// Store is the persisted-record interface the allocation service depends on.
type Store interface {
	// Create assigns the record an id, persists it and returns the id.
	Create(r Record) (string, error)
	// Get returns the record and whether it exists.
	Get(id string) (Record, bool, error)
	// Update applies mutate to the stored record and persists the result.
	// Fails with ErrNotFound for unknown ids.
	Update(id string, mutate func(*Record)) (Record, error)
	// List returns all matching records in insertion order.
	List(f Filter) ([]Record, error)
	// Clear drops every record.
	Clear() error
}
