package engine

import "math"

// Linear realizations of the externally trained scoring functions. The
// engine treats the functions as opaque; these constructors exist so trained
// regression coefficients (see cmd/models_config.go) can be turned into
// ScoreFunc/preference funcs without the engine knowing the model format.
//
// Coefficient order, matching the training feature order:
//
//	[intercept, duration_hours, day_of_week, hour_of_day, priority_level, occupancy_ratio]

// dot evaluates a linear model over the feature vector. Missing trailing
// coefficients are treated as zero.
func dot(coeffs []float64, f FeatureVector) float64 {
	features := []float64{
		1,
		f.DurationHours,
		float64(f.DayOfWeek),
		float64(f.HourOfDay),
		float64(f.PriorityLevel),
		f.OccupancyRatio,
	}
	var sum float64
	for i, c := range coeffs {
		if i >= len(features) {
			break
		}
		sum += c * features[i]
	}
	return sum
}

// LinearSuitability builds a suitability ScoreFunc from regression
// coefficients.
func LinearSuitability(coeffs []float64) ScoreFunc {
	return func(f FeatureVector) float64 {
		return dot(coeffs, f)
	}
}

// LinearBayPreference builds a bay preference function: the linear model's
// output rounded and clamped into [0, numBays).
func LinearBayPreference(coeffs []float64, numBays int) PreferenceFunc {
	return func(f FeatureVector) int {
		return clampRound(dot(coeffs, f), numBays)
	}
}

// LinearSlotPreference builds a slot preference function, clamped into
// [0, slotsPerBay).
func LinearSlotPreference(coeffs []float64, slotsPerBay int) PreferenceFunc {
	return func(f FeatureVector) int {
		return clampRound(dot(coeffs, f), slotsPerBay)
	}
}

func clampRound(v float64, n int) int {
	i := int(math.Round(v))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
