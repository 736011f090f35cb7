package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/parking-sim/parking-sim/engine"
)

// ModelCoefficients is the on-disk shape of the trained scoring models:
// one coefficient vector per model, in the training feature order
// [intercept, duration_hours, day_of_week, hour_of_day, priority_level,
// occupancy_ratio]. Training and export live outside this repo.
type ModelCoefficients struct {
	Suitability    []float64 `yaml:"suitability_coeffs"`
	BayPreference  []float64 `yaml:"bay_coeffs"`
	SlotPreference []float64 `yaml:"slot_coeffs"`
	Version        string    `yaml:"version"`
}

// LoadModelCoefficients reads and parses a YAML scoring-model file.
func LoadModelCoefficients(path string) (*ModelCoefficients, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model coefficients: %w", err)
	}
	var coeffs ModelCoefficients
	if err := yaml.Unmarshal(data, &coeffs); err != nil {
		return nil, fmt.Errorf("parsing model coefficients: %w", err)
	}
	if len(coeffs.Suitability) == 0 || len(coeffs.BayPreference) == 0 || len(coeffs.SlotPreference) == 0 {
		return nil, fmt.Errorf("model coefficients file %s is missing a coefficient vector", path)
	}
	return &coeffs, nil
}

// LoadVehicleBatch reads an ordered vehicle batch from a YAML file (JSON is
// a subset of YAML, so exported JSON batches load too). Every request is
// validated up front so a malformed batch fails before the run starts.
func LoadVehicleBatch(path string) ([]engine.VehicleRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vehicle batch: %w", err)
	}
	var batch struct {
		Vehicles []engine.VehicleRequest `yaml:"vehicles"`
	}
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("parsing vehicle batch: %w", err)
	}
	if len(batch.Vehicles) == 0 {
		return nil, fmt.Errorf("vehicle batch %s holds no vehicles", path)
	}
	for i, v := range batch.Vehicles {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("vehicle %d (%s): %w", i, v.VehicleID, err)
		}
	}
	return batch.Vehicles, nil
}
