package engine

import "time"

// baselineScore is the constant score reported by the policy-free variants.
const baselineScore = 1.0

// SequentialPolicy assigns the first free cell in bay-major, slot-minor
// order. Deterministic and model-free; the baseline the learned policy is
// compared against.
type SequentialPolicy struct {
	now func() time.Time
}

// NewSequentialPolicy creates a sequential policy.
func NewSequentialPolicy(now func() time.Time) *SequentialPolicy {
	return &SequentialPolicy{now: now}
}

func (p *SequentialPolicy) Name() string { return PolicySequential }

// Decide implements AllocationPolicy for SequentialPolicy.
func (p *SequentialPolicy) Decide(req VehicleRequest, grid *OccupancyGrid) (AllocationDecision, error) {
	if err := req.Validate(); err != nil {
		return AllocationDecision{}, err
	}
	free := grid.FreeCells()
	if len(free) == 0 {
		return newRejected("no free cells", p.now()), nil
	}
	return newAllocated(free[0], baselineScore, p.now()), nil
}
