package engine

import (
	"math"
	"time"
)

// SlotStatus describes one slot for external status consumers. SlotNumber is
// 1-based. Reservation is nil for free slots.
type SlotStatus struct {
	SlotNumber  int          `json:"slot_number"`
	IsOccupied  bool         `json:"is_occupied"`
	Reservation *Reservation `json:"reservation,omitempty"`
}

// BayStatus groups the slot statuses of one bay. BayNumber is 1-based.
type BayStatus struct {
	BayNumber int          `json:"bay_number"`
	Slots     []SlotStatus `json:"slots"`
}

// FacilityStatus is the full status report of a facility at one instant.
type FacilityStatus struct {
	Bays             []BayStatus `json:"bays"`
	TotalSlots       int         `json:"total_slots"`
	OccupiedSlots    int         `json:"occupied_slots"`
	AvailableSlots   int         `json:"available_slots"`
	OccupancyPercent float64     `json:"occupancy_percentage"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// RenderFacilityStatus derives a status report from a grid snapshot at the
// single captured now. Reservations whose departure time has passed are
// reported as free even if they were never explicitly released (lazy
// filtering); the same now is used for every cell so a request straddling
// the boundary cannot be counted inconsistently.
func RenderFacilityStatus(grid *OccupancyGrid, now time.Time) FacilityStatus {
	facility := grid.Facility()
	snapshot := grid.Snapshot()

	occupied := 0
	bays := make([]BayStatus, 0, facility.NumBays)
	for bay := 0; bay < facility.NumBays; bay++ {
		slots := make([]SlotStatus, 0, facility.SlotsPerBay)
		for slot := 0; slot < facility.SlotsPerBay; slot++ {
			status := SlotStatus{SlotNumber: slot + 1}
			if res, ok := snapshot[Cell{Bay: bay, Slot: slot}]; ok && !res.Expired(now) {
				status.IsOccupied = true
				status.Reservation = &res
				occupied++
			}
			slots = append(slots, status)
		}
		bays = append(bays, BayStatus{BayNumber: bay + 1, Slots: slots})
	}

	total := facility.Capacity()
	return FacilityStatus{
		Bays:             bays,
		TotalSlots:       total,
		OccupiedSlots:    occupied,
		AvailableSlots:   total - occupied,
		OccupancyPercent: math.Round(float64(occupied)/float64(total)*1000) / 10,
		UpdatedAt:        now,
	}
}
