package engine

import (
	"fmt"
	"time"
)

// AllocationPolicy maps a vehicle request and the current grid to a
// decision. Decide is a pure query: it never calls grid.Occupy — mutation is
// a separate, explicit step performed by the caller so that retries and
// dry-runs stay possible. Capacity exhaustion is returned as a Rejected
// decision, never as an error; errors are reserved for malformed input.
type AllocationPolicy interface {
	Name() string
	Decide(req VehicleRequest, grid *OccupancyGrid) (AllocationDecision, error)
}

// Policy names recognized by NewPolicy.
const (
	PolicyLearned    = "learned"
	PolicySequential = "sequential"
	PolicyRandom     = "random"
)

// ValidPolicies is the set of recognized policy names. Shared by config
// Validate() and NewPolicy() to avoid duplication. An empty string defaults
// to the learned policy.
var ValidPolicies = map[string]bool{"": true, PolicyLearned: true, PolicySequential: true, PolicyRandom: true}

// PolicyOptions carries the knobs the individual policies need. Adapter is
// required for the learned policy only. Now defaults to time.Now and stamps
// DecisionTime on every decision.
type PolicyOptions struct {
	Adapter     *ScoringAdapter
	BlendWeight float64 // learned policy: weight of the model score vs the value table
	Seed        int64   // random policy: RNG seed for reproducible runs
	Now         func() time.Time
}

func (o PolicyOptions) clock() func() time.Time {
	if o.Now == nil {
		return time.Now
	}
	return o.Now
}

// NewPolicy creates an allocation policy by name. Valid names are defined in
// ValidPolicies; anything else is an error.
func NewPolicy(name string, opts PolicyOptions) (AllocationPolicy, error) {
	if !ValidPolicies[name] {
		return nil, fmt.Errorf("unknown allocation policy %q", name)
	}
	switch name {
	case "", PolicyLearned:
		if opts.Adapter == nil {
			return nil, fmt.Errorf("learned policy requires a scoring adapter")
		}
		return NewLearnedPolicy(opts.Adapter, opts.BlendWeight, opts.clock()), nil
	case PolicySequential:
		return NewSequentialPolicy(opts.clock()), nil
	case PolicyRandom:
		return NewRandomPolicy(opts.Seed, opts.clock()), nil
	default:
		return nil, fmt.Errorf("unhandled allocation policy %q", name)
	}
}
