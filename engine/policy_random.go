package engine

import (
	"math/rand"
	"time"
)

// RandomPolicy selects uniformly at random among the free cells. The RNG is
// seeded at construction so the same seed and request sequence reproduce the
// same cell choices.
type RandomPolicy struct {
	rand *rand.Rand
	now  func() time.Time
}

// NewRandomPolicy creates a random policy with a seeded RNG.
func NewRandomPolicy(seed int64, now func() time.Time) *RandomPolicy {
	return &RandomPolicy{
		rand: rand.New(rand.NewSource(seed)),
		now:  now,
	}
}

func (p *RandomPolicy) Name() string { return PolicyRandom }

// Decide implements AllocationPolicy for RandomPolicy.
func (p *RandomPolicy) Decide(req VehicleRequest, grid *OccupancyGrid) (AllocationDecision, error) {
	if err := req.Validate(); err != nil {
		return AllocationDecision{}, err
	}
	free := grid.FreeCells()
	if len(free) == 0 {
		return newRejected("no free cells", p.now()), nil
	}
	return newAllocated(free[p.rand.Intn(len(free))], baselineScore, p.now()), nil
}
