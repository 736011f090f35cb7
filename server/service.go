// Package server binds the allocation engine to persisted storage and
// exposes the HTTP API around it.
package server

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/parking-sim/parking-sim/engine"
	"github.com/parking-sim/parking-sim/store"
)

// ErrRejected marks an allocation attempt that found no free cell. A
// business outcome, reported to API clients as a 409, not a server fault.
var ErrRejected = errors.New("allocation rejected")

// AllocationService is the live allocation façade: it serializes
// decide+occupy on one grid, persists allocated decisions per policy and
// keeps the grid and the stores in sync. Decide alone is read-only, but the
// decide+occupy pair must be atomic with respect to other writers of the
// same grid, so the whole pair runs under the service mutex.
type AllocationService struct {
	mu       sync.Mutex
	facility engine.Facility
	grid     *engine.OccupancyGrid
	opts     engine.PolicyOptions
	stores   map[string]store.Store
	now      func() time.Time
	metrics  *Metrics
}

// ServiceConfig assembles an AllocationService.
type ServiceConfig struct {
	Facility engine.Facility
	Options  engine.PolicyOptions // adapter, blend weight, seed shared by all policies
	Stores   map[string]store.Store
	Now      func() time.Time // defaults to time.Now
	Metrics  *Metrics         // optional
}

// NewAllocationService builds the service and rebuilds grid state from the
// active, unexpired records already persisted, so restarts do not lose the
// live occupancy picture.
func NewAllocationService(cfg ServiceConfig) (*AllocationService, error) {
	if err := cfg.Facility.Validate(); err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	s := &AllocationService{
		facility: cfg.Facility,
		grid:     engine.NewOccupancyGrid(cfg.Facility, cfg.Options.Seed),
		opts:     cfg.Options,
		stores:   cfg.Stores,
		now:      now,
		metrics:  cfg.Metrics,
	}
	if s.stores == nil {
		s.stores = map[string]store.Store{}
	}
	for name := range s.stores {
		if !engine.ValidPolicies[name] {
			return nil, fmt.Errorf("store for unknown policy %q", name)
		}
	}
	if err := s.rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

// storeFor returns the policy's record store, creating a memory store on
// first use so every valid policy always has one.
func (s *AllocationService) storeFor(policy string) (store.Store, error) {
	if !engine.ValidPolicies[policy] {
		return nil, fmt.Errorf("unknown allocation policy %q", policy)
	}
	if policy == "" {
		policy = engine.PolicyLearned
	}
	if st, ok := s.stores[policy]; ok {
		return st, nil
	}
	st := store.NewMemoryStore()
	s.stores[policy] = st
	return st, nil
}

// rebuild replays active, unexpired records from every store onto the grid.
// Called once at construction, before the service is shared.
func (s *AllocationService) rebuild() error {
	now := s.now()
	for name, st := range s.stores {
		records, err := st.List(store.Filter{ActiveOnly: true})
		if err != nil {
			return fmt.Errorf("rebuilding from %s store: %w", name, err)
		}
		for _, rec := range records {
			if !rec.DepartureTime.After(now) {
				continue
			}
			err := s.grid.Occupy(rec.BayAssigned-1, rec.SlotAssigned-1, engine.Reservation{
				VehicleID:     rec.VehicleID,
				ArrivalTime:   rec.AllocatedAt,
				DepartureTime: rec.DepartureTime,
				PriorityLevel: rec.PriorityLevel,
			})
			if err != nil && !errors.Is(err, engine.ErrConflict) {
				return fmt.Errorf("rebuilding cell for record %s: %w", rec.ID, err)
			}
		}
	}
	return nil
}

// Allocate runs decide+occupy atomically for one vehicle and persists the
// result. policy may be empty (learned). Rejection surfaces as ErrRejected.
func (s *AllocationService) Allocate(req engine.VehicleRequest, policyName string) (store.Record, error) {
	pol, err := engine.NewPolicy(policyName, s.opts)
	if err != nil {
		return store.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.storeFor(policyName)
	if err != nil {
		return store.Record{}, err
	}

	now := s.now()
	s.sweepLocked(now)

	decision, err := pol.Decide(req, s.grid)
	if err != nil {
		return store.Record{}, err
	}
	if !decision.Allocated() {
		s.observe(pol.Name(), decision)
		return store.Record{}, fmt.Errorf("%w: %s", ErrRejected, decision.Reason)
	}

	cell := decision.Cell()
	if err := s.grid.Occupy(cell.Bay, cell.Slot, req.Reservation()); err != nil {
		return store.Record{}, err
	}

	rec := store.Record{
		VehicleID:     req.VehicleID,
		VehicleClass:  req.VehicleClass,
		PlateType:     req.PlateType,
		BayAssigned:   decision.BayAssigned,
		SlotAssigned:  decision.SlotAssigned,
		Score:         decision.Score,
		AllocatedAt:   decision.DecisionTime,
		DepartureTime: req.DepartureTime,
		PriorityLevel: req.PriorityLevel,
		IsActive:      true,
	}
	id, err := st.Create(rec)
	if err != nil {
		// Persistence failed; undo the grid mutation so decide+occupy+persist
		// stays all-or-nothing.
		if rerr := s.grid.Release(cell.Bay, cell.Slot); rerr != nil {
			logrus.Errorf("rollback of %s failed: %v", cell, rerr)
		}
		return store.Record{}, err
	}
	rec.ID = id

	s.observe(pol.Name(), decision)
	logrus.Infof("allocated vehicle %s to bay %d slot %d (policy=%s score=%.4f)",
		req.VehicleID, rec.BayAssigned, rec.SlotAssigned, pol.Name(), rec.Score)
	return rec, nil
}

// AllocateBulk processes vehicles in order; the result slice keeps input
// order with nil entries for vehicles that could not be placed.
func (s *AllocationService) AllocateBulk(reqs []engine.VehicleRequest, policyName string) []*store.Record {
	out := make([]*store.Record, 0, len(reqs))
	for _, req := range reqs {
		rec, err := s.Allocate(req, policyName)
		if err != nil {
			logrus.Debugf("bulk allocate: vehicle %s failed: %v", req.VehicleID, err)
			out = append(out, nil)
			continue
		}
		out = append(out, &rec)
	}
	return out
}

// Get returns a persisted allocation record by id, searching every policy
// store.
func (s *AllocationService) Get(id string) (store.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id)
}

func (s *AllocationService) getLocked(id string) (store.Record, bool, error) {
	for _, st := range s.stores {
		rec, ok, err := st.Get(id)
		if err != nil {
			return store.Record{}, false, err
		}
		if ok {
			return rec, true, nil
		}
	}
	return store.Record{}, false, nil
}

// List returns records from the named policy's store.
func (s *AllocationService) List(policyName string, f store.Filter) ([]store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.storeFor(policyName)
	if err != nil {
		return nil, err
	}
	return st.List(f)
}

// ExtendDeparture moves a record's departure time and refreshes the cell's
// reservation to match.
func (s *AllocationService) ExtendDeparture(id string, departure time.Time) (store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok, err := s.getLocked(id)
	if err != nil {
		return store.Record{}, err
	}
	if !ok {
		return store.Record{}, fmt.Errorf("extend %s: %w", id, store.ErrNotFound)
	}
	if !departure.After(rec.AllocatedAt) {
		return store.Record{}, fmt.Errorf("%w: departure %s not after allocation time",
			engine.ErrInvalidRequest, departure.Format(time.RFC3339))
	}

	bay, slot := rec.BayAssigned-1, rec.SlotAssigned-1
	if rec.IsActive {
		// Refresh the live reservation. The cell may already have been swept
		// if the old departure passed; re-occupying then is correct.
		if err := s.grid.Release(bay, slot); err != nil && !errors.Is(err, engine.ErrNotOccupied) {
			return store.Record{}, err
		}
		err := s.grid.Occupy(bay, slot, engine.Reservation{
			VehicleID:     rec.VehicleID,
			ArrivalTime:   rec.AllocatedAt,
			DepartureTime: departure,
			PriorityLevel: rec.PriorityLevel,
		})
		if err != nil {
			return store.Record{}, err
		}
	}

	st, err := s.storeWith(id)
	if err != nil {
		return store.Record{}, err
	}
	return st.Update(id, func(r *store.Record) {
		r.DepartureTime = departure
	})
}

// End marks a record inactive and frees its cell.
func (s *AllocationService) End(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok, err := s.getLocked(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("end %s: %w", id, store.ErrNotFound)
	}
	if rec.IsActive {
		err := s.grid.Release(rec.BayAssigned-1, rec.SlotAssigned-1)
		if err != nil && !errors.Is(err, engine.ErrNotOccupied) {
			return err
		}
	}
	st, err := s.storeWith(id)
	if err != nil {
		return err
	}
	_, err = st.Update(id, func(r *store.Record) {
		r.IsActive = false
	})
	return err
}

// storeWith finds the store holding the given record id.
func (s *AllocationService) storeWith(id string) (store.Store, error) {
	for _, st := range s.stores {
		if _, ok, err := st.Get(id); err != nil {
			return nil, err
		} else if ok {
			return st, nil
		}
	}
	return nil, fmt.Errorf("store for %s: %w", id, store.ErrNotFound)
}

// Status renders the live grid at one captured now.
func (s *AllocationService) Status() engine.FacilityStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := engine.RenderFacilityStatus(s.grid, s.now())
	if s.metrics != nil {
		s.metrics.OccupiedSlots.Set(float64(status.OccupiedSlots))
	}
	return status
}

// StatusFor reconstructs a facility view from one policy's persisted
// records: active records whose departure is still ahead of now count as
// occupied. Expired or inactive records simply render as free.
func (s *AllocationService) StatusFor(policyName string) (engine.FacilityStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.storeFor(policyName)
	if err != nil {
		return engine.FacilityStatus{}, err
	}
	records, err := st.List(store.Filter{ActiveOnly: true})
	if err != nil {
		return engine.FacilityStatus{}, err
	}

	now := s.now()
	grid := engine.NewOccupancyGrid(s.facility, 0)
	for _, rec := range records {
		if !rec.DepartureTime.After(now) {
			continue
		}
		err := grid.Occupy(rec.BayAssigned-1, rec.SlotAssigned-1, engine.Reservation{
			VehicleID:     rec.VehicleID,
			ArrivalTime:   rec.AllocatedAt,
			DepartureTime: rec.DepartureTime,
			PriorityLevel: rec.PriorityLevel,
		})
		if err != nil && !errors.Is(err, engine.ErrConflict) {
			return engine.FacilityStatus{}, err
		}
	}
	return engine.RenderFacilityStatus(grid, now), nil
}

// Simulate clears the policy's store, replays the batch against a fresh
// private grid and persists the successful outcomes, mirroring the live
// record shape.
func (s *AllocationService) Simulate(reqs []engine.VehicleRequest, policyName string, initialFillRatio float64) (*engine.SimulationReport, error) {
	pol, err := engine.NewPolicy(policyName, s.opts)
	if err != nil {
		return nil, err
	}

	runner := engine.SimulationRunner{}
	report, err := runner.Run(reqs, pol, s.facility, initialFillRatio, s.opts.Seed)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.storeFor(policyName)
	if err != nil {
		return nil, err
	}
	if err := st.Clear(); err != nil {
		return nil, err
	}
	byID := make(map[string]engine.VehicleRequest, len(reqs))
	for _, req := range reqs {
		byID[req.VehicleID] = req
	}
	for _, outcome := range report.Outcomes {
		if outcome.Failed() {
			continue
		}
		req := byID[outcome.VehicleID]
		if _, err := st.Create(store.Record{
			VehicleID:     outcome.VehicleID,
			VehicleClass:  req.VehicleClass,
			PlateType:     req.PlateType,
			BayAssigned:   outcome.Decision.BayAssigned,
			SlotAssigned:  outcome.Decision.SlotAssigned,
			Score:         outcome.Decision.Score,
			AllocatedAt:   outcome.Decision.DecisionTime,
			DepartureTime: req.DepartureTime,
			PriorityLevel: req.PriorityLevel,
			IsActive:      true,
		}); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// Compare replays the same batch through every policy, each on a fresh grid
// and store.
func (s *AllocationService) Compare(reqs []engine.VehicleRequest, initialFillRatio float64) (map[string]*engine.SimulationReport, error) {
	reports := make(map[string]*engine.SimulationReport, 3)
	for _, name := range []string{engine.PolicySequential, engine.PolicyRandom, engine.PolicyLearned} {
		report, err := s.Simulate(reqs, name, initialFillRatio)
		if err != nil {
			return nil, fmt.Errorf("policy %s: %w", name, err)
		}
		reports[name] = report
	}
	return reports, nil
}

// Clear empties one policy's store ("all" empties every store).
func (s *AllocationService) Clear(policyName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if policyName == "all" {
		for _, st := range s.stores {
			if err := st.Clear(); err != nil {
				return err
			}
		}
		return nil
	}
	st, err := s.storeFor(policyName)
	if err != nil {
		return err
	}
	return st.Clear()
}

// Sweep eagerly releases reservations whose departure time has passed.
// Returns the number of cells freed.
func (s *AllocationService) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now())
}

func (s *AllocationService) sweepLocked(now time.Time) int {
	freed := 0
	for cell, res := range s.grid.Snapshot() {
		if res.Expired(now) {
			if err := s.grid.Release(cell.Bay, cell.Slot); err == nil {
				freed++
			}
		}
	}
	if freed > 0 {
		logrus.Debugf("swept %d expired reservations", freed)
	}
	return freed
}

func (s *AllocationService) observe(policy string, d engine.AllocationDecision) {
	if s.metrics == nil {
		return
	}
	s.metrics.AllocationsTotal.WithLabelValues(policy, string(d.Status)).Inc()
	if d.Allocated() {
		s.metrics.DecisionScore.Observe(d.Score)
	}
	s.metrics.OccupiedSlots.Set(float64(s.grid.OccupiedCount()))
}
