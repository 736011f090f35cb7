package engine

import "time"

// DefaultBlendWeight is the weight of the model score in the learned
// policy's combined score when none is configured.
const DefaultBlendWeight = 0.7

// LearnedPolicy picks the free cell with the highest combined score:
//
//	combined = w * modelScore + (1-w) * Q[state][action]
//
// where state is the discretized occupancy state and action the flattened
// (bay, slot) id. The adapter ranks every cell, so the policy only rejects
// when the grid is genuinely full; if the ranked list ever yields no free
// cell it still falls back to an exhaustive scan of FreeCells rather than
// spuriously rejecting.
type LearnedPolicy struct {
	adapter     *ScoringAdapter
	blendWeight float64
	now         func() time.Time
}

// NewLearnedPolicy creates a learned policy. A blend weight outside (0,1]
// falls back to DefaultBlendWeight.
func NewLearnedPolicy(adapter *ScoringAdapter, blendWeight float64, now func() time.Time) *LearnedPolicy {
	if blendWeight <= 0 || blendWeight > 1 {
		blendWeight = DefaultBlendWeight
	}
	return &LearnedPolicy{adapter: adapter, blendWeight: blendWeight, now: now}
}

func (p *LearnedPolicy) Name() string { return PolicyLearned }

// Decide implements AllocationPolicy for LearnedPolicy.
func (p *LearnedPolicy) Decide(req VehicleRequest, grid *OccupancyGrid) (AllocationDecision, error) {
	if err := req.Validate(); err != nil {
		return AllocationDecision{}, err
	}

	facility := grid.Facility()
	table := p.adapter.Table()
	state := table.StateOf(grid)

	best, found := p.bestFreeCandidate(req, grid, state)
	if !found {
		// Exhaustive fallback: blend the table value alone over whatever is
		// still free. Unreachable while the adapter ranks all cells, but it
		// keeps the no-spurious-reject guarantee independent of the adapter.
		for _, cell := range grid.FreeCells() {
			action := facility.ActionID(cell.Bay, cell.Slot)
			combined := (1 - p.blendWeight) * table.Value(state, action)
			if !found || combined > best.Score {
				best = ScoredCell{Cell: cell, Score: combined}
				found = true
			}
		}
	}
	if !found {
		return newRejected("no free cells", p.now()), nil
	}
	return newAllocated(best.Cell, best.Score, p.now()), nil
}

// bestFreeCandidate combines each ranked candidate's model score with its
// value-table entry and returns the best currently-free one. Ranked order is
// descending with ascending (bay, slot) tie-breaks, so equal combined scores
// resolve deterministically to the earliest cell.
func (p *LearnedPolicy) bestFreeCandidate(req VehicleRequest, grid *OccupancyGrid, state int) (ScoredCell, bool) {
	facility := grid.Facility()
	table := p.adapter.Table()

	var best ScoredCell
	found := false
	for _, cand := range p.adapter.RankCandidates(req, grid) {
		if !grid.IsFree(cand.Cell.Bay, cand.Cell.Slot) {
			continue
		}
		action := facility.ActionID(cand.Cell.Bay, cand.Cell.Slot)
		combined := p.blendWeight*cand.Score + (1-p.blendWeight)*table.Value(state, action)
		if !found || combined > best.Score {
			best = ScoredCell{Cell: cand.Cell, Score: combined}
			found = true
		}
	}
	return best, found
}
