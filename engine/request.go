// Defines the VehicleRequest struct that models one arriving vehicle and the
// feature vector the trained scoring models consume.

package engine

import (
	"fmt"
	"time"
)

// VehicleRequest describes one vehicle asking for a slot. Immutable once
// constructed; the derived features (duration, day-of-week, hour-of-day) are
// computed from the time window on demand.
type VehicleRequest struct {
	VehicleID     string    `json:"vehicle_id" yaml:"vehicle_id"`
	VehicleClass  int       `json:"vehicle_class" yaml:"vehicle_class"` // 0: car, 1: truck, 2: motorcycle
	PlateType     int       `json:"plate_type" yaml:"plate_type"`       // 0: private, 1: public, 2: government
	ArrivalTime   time.Time `json:"arrival_time" yaml:"arrival_time"`
	DepartureTime time.Time `json:"departure_time" yaml:"departure_time"`
	PriorityLevel int       `json:"priority_level" yaml:"priority_level"` // 0-3, 3 highest
}

// Validate checks the time window. Arrival must be strictly before departure.
func (r VehicleRequest) Validate() error {
	if r.VehicleID == "" {
		return fmt.Errorf("%w: empty vehicle id", ErrInvalidRequest)
	}
	if !r.ArrivalTime.Before(r.DepartureTime) {
		return fmt.Errorf("%w: arrival %s not before departure %s",
			ErrInvalidRequest, r.ArrivalTime.Format(time.RFC3339), r.DepartureTime.Format(time.RFC3339))
	}
	return nil
}

// DurationHours returns the stay length in fractional hours.
func (r VehicleRequest) DurationHours() float64 {
	return r.DepartureTime.Sub(r.ArrivalTime).Hours()
}

// DayOfWeek returns the arrival weekday as 0=Monday..6=Sunday, matching the
// encoding the scoring models were trained with.
func (r VehicleRequest) DayOfWeek() int {
	return (int(r.ArrivalTime.Weekday()) + 6) % 7
}

// HourOfDay returns the arrival hour, 0-23.
func (r VehicleRequest) HourOfDay() int {
	return r.ArrivalTime.Hour()
}

// Reservation converts the request into the occupancy record committed to a
// cell once a decision is made.
func (r VehicleRequest) Reservation() Reservation {
	return Reservation{
		VehicleID:     r.VehicleID,
		ArrivalTime:   r.ArrivalTime,
		DepartureTime: r.DepartureTime,
		PriorityLevel: r.PriorityLevel,
	}
}

// FeatureVector is the input the trained scoring functions consume: request
// features plus the grid's current occupancy ratio.
type FeatureVector struct {
	DurationHours  float64
	DayOfWeek      int
	HourOfDay      int
	PriorityLevel  int
	OccupancyRatio float64
}

// Features derives the feature vector for this request against the given
// occupancy ratio.
func (r VehicleRequest) Features(occupancyRatio float64) FeatureVector {
	return FeatureVector{
		DurationHours:  r.DurationHours(),
		DayOfWeek:      r.DayOfWeek(),
		HourOfDay:      r.HourOfDay(),
		PriorityLevel:  r.PriorityLevel,
		OccupancyRatio: occupancyRatio,
	}
}
