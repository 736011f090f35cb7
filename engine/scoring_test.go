package engine

import "testing"

func TestScoringAdapter_RanksHighestFirst(t *testing.T) {
	// GIVEN preferences pointing at bay 1, slot 0 of a 2x2 facility
	facility := testFacility(t, 2, 2)
	adapter := NewScoringAdapter(
		ConstantScore(2.0),
		ConstantPreference(1),
		ConstantPreference(0),
		NewZeroValueTable(10, facility.Capacity()),
	)
	grid := NewOccupancyGrid(facility, 1)

	// WHEN candidates are ranked
	ranked := adapter.RankCandidates(testRequest("KA-01", 1), grid)

	// THEN the preferred cell leads and scores never increase down the list
	if len(ranked) != facility.Capacity() {
		t.Fatalf("RankCandidates: got %d candidates, want %d", len(ranked), facility.Capacity())
	}
	if ranked[0].Cell != (Cell{1, 0}) {
		t.Errorf("top candidate: got %s, want (1,0)", ranked[0].Cell)
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Errorf("ranking not descending at %d: %g > %g", i, ranked[i].Score, ranked[i-1].Score)
		}
	}
}

func TestScoringAdapter_TiesBreakByAscendingCell(t *testing.T) {
	// GIVEN a preference target equidistant from several cells
	facility := testFacility(t, 2, 2)
	adapter := neutralAdapter(facility)
	grid := NewOccupancyGrid(facility, 1)

	// WHEN candidates are ranked
	ranked := adapter.RankCandidates(testRequest("KA-01", 1), grid)

	// THEN (0,1) and (1,0) tie on distance 1 and resolve by ascending bay
	if ranked[1].Cell != (Cell{0, 1}) || ranked[2].Cell != (Cell{1, 0}) {
		t.Errorf("tie order: got %s then %s, want (0,1) then (1,0)", ranked[1].Cell, ranked[2].Cell)
	}
	if ranked[1].Score != ranked[2].Score {
		t.Errorf("expected a tie, got %g vs %g", ranked[1].Score, ranked[2].Score)
	}
}

func TestScoringAdapter_NeverMutatesGrid(t *testing.T) {
	facility := testFacility(t, 2, 2)
	adapter := neutralAdapter(facility)
	grid := NewOccupancyGrid(facility, 1)
	if err := grid.Occupy(0, 0, testReservation("KA-00")); err != nil {
		t.Fatalf("Occupy: %v", err)
	}

	_ = adapter.RankCandidates(testRequest("KA-01", 1), grid)

	if grid.OccupiedCount() != 1 {
		t.Errorf("OccupiedCount after ranking: got %d, want 1", grid.OccupiedCount())
	}
}

func TestScoringAdapter_SingleCellFacility(t *testing.T) {
	// A 1x1 facility has zero max distance; the penalty must not divide by zero.
	facility := testFacility(t, 1, 1)
	adapter := neutralAdapter(facility)
	grid := NewOccupancyGrid(facility, 1)

	ranked := adapter.RankCandidates(testRequest("KA-01", 1), grid)
	if len(ranked) != 1 || ranked[0].Score != 1.0 {
		t.Errorf("RankCandidates on 1x1: got %+v, want single cell with score 1.0", ranked)
	}
}

func TestLinearModels(t *testing.T) {
	f := FeatureVector{DurationHours: 2, DayOfWeek: 3, HourOfDay: 10, PriorityLevel: 1, OccupancyRatio: 0.5}

	// dot([0.5, 1, 0, 0, 0, 0]) = 0.5 + 2 = 2.5
	if got := LinearSuitability([]float64{0.5, 1})(f); got != 2.5 {
		t.Errorf("LinearSuitability: got %g, want 2.5", got)
	}
	// 0.4*duration = 0.8 → rounds to 1
	if got := LinearBayPreference([]float64{0, 0.4}, 4)(f); got != 1 {
		t.Errorf("LinearBayPreference: got %d, want 1", got)
	}
	// A huge output clamps into range.
	if got := LinearSlotPreference([]float64{100}, 10)(f); got != 9 {
		t.Errorf("LinearSlotPreference clamp: got %d, want 9", got)
	}
	if got := LinearBayPreference([]float64{-100}, 4)(f); got != 0 {
		t.Errorf("LinearBayPreference negative clamp: got %d, want 0", got)
	}
}
