package engine

import "sort"

// ScoreFunc is an externally trained, side-effect-free suitability model:
// feature vector in, goodness score out.
type ScoreFunc func(FeatureVector) float64

// PreferenceFunc is an externally trained preference model returning a
// 0-based bay or slot index.
type PreferenceFunc func(FeatureVector) int

// ScoredCell pairs a cell with its model score.
type ScoredCell struct {
	Cell  Cell
	Score float64
}

// ScoringAdapter wraps the three trained scoring functions and the value
// table behind one call signature. It is a pure reader: it derives a feature
// vector from the request and the grid's occupancy ratio and ranks candidate
// cells, never mutating the grid.
type ScoringAdapter struct {
	suitability ScoreFunc
	bayPref     PreferenceFunc
	slotPref    PreferenceFunc
	table       *ValueTable
}

// NewScoringAdapter bundles the trained artifacts. All four must be non-nil;
// use ConstantScore / ConstantPreference / NewZeroValueTable for neutral
// stand-ins.
func NewScoringAdapter(suitability ScoreFunc, bayPref, slotPref PreferenceFunc, table *ValueTable) *ScoringAdapter {
	return &ScoringAdapter{
		suitability: suitability,
		bayPref:     bayPref,
		slotPref:    slotPref,
		table:       table,
	}
}

// ConstantScore returns a ScoreFunc that ignores its features.
func ConstantScore(v float64) ScoreFunc {
	return func(FeatureVector) float64 { return v }
}

// ConstantPreference returns a PreferenceFunc that ignores its features.
func ConstantPreference(idx int) PreferenceFunc {
	return func(FeatureVector) int { return idx }
}

// Table returns the wrapped value table.
func (a *ScoringAdapter) Table() *ValueTable {
	return a.table
}

// RankCandidates scores every cell of the grid for the request and returns
// them highest first. The suitability model gives the base score; the bay
// and slot preference models pick a preferred cell, and each candidate is
// penalized by its normalized distance from that cell. Numeric ties break by
// ascending (bay, slot) so rankings are deterministic.
func (a *ScoringAdapter) RankCandidates(req VehicleRequest, grid *OccupancyGrid) []ScoredCell {
	facility := grid.Facility()
	features := req.Features(grid.OccupancyRatio())

	base := a.suitability(features)
	prefBay := a.bayPref(features)
	prefSlot := a.slotPref(features)

	ranked := make([]ScoredCell, 0, facility.Capacity())
	for bay := 0; bay < facility.NumBays; bay++ {
		for slot := 0; slot < facility.SlotsPerBay; slot++ {
			penalty := distancePenalty(bay, slot, prefBay, prefSlot, facility)
			ranked = append(ranked, ScoredCell{
				Cell:  Cell{Bay: bay, Slot: slot},
				Score: base - penalty,
			})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].Cell.Bay != ranked[j].Cell.Bay {
			return ranked[i].Cell.Bay < ranked[j].Cell.Bay
		}
		return ranked[i].Cell.Slot < ranked[j].Cell.Slot
	})
	return ranked
}

// distancePenalty is the normalized Manhattan distance from the preferred
// cell, scaled into [0,1] so it perturbs rather than dominates the base score.
func distancePenalty(bay, slot, prefBay, prefSlot int, f Facility) float64 {
	maxDist := float64(f.NumBays - 1 + f.SlotsPerBay - 1)
	if maxDist == 0 {
		return 0
	}
	dist := float64(abs(bay-prefBay) + abs(slot-prefSlot))
	return dist / maxDist
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
