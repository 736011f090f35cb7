package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func float64Ptr(v float64) *float64 { return &v }

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp yaml: %v", err)
	}
	return path
}

func TestLoadEngineConfig_ValidYAML(t *testing.T) {
	yaml := `
facility:
  num_bays: 4
  slots_per_bay: 10
policy: learned
initial_fill_ratio: 0.2
blend_weight: 0.6
seed: 7
`
	cfg, err := LoadEngineConfig(writeTempYAML(t, yaml))
	assert.NoError(t, err)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, Facility{NumBays: 4, SlotsPerBay: 10}, cfg.Facility)
	assert.Equal(t, PolicyLearned, cfg.Policy)
	assert.Equal(t, float64Ptr(0.2), cfg.InitialFillRatio)
	assert.Equal(t, float64Ptr(0.6), cfg.BlendWeight)
	assert.Equal(t, int64(7), *cfg.Seed)
}

func TestEngineConfig_UnsetIsDistinctFromZero(t *testing.T) {
	yaml := `
facility:
  num_bays: 2
  slots_per_bay: 2
policy: sequential
`
	cfg, err := LoadEngineConfig(writeTempYAML(t, yaml))
	assert.NoError(t, err)
	assert.Nil(t, cfg.InitialFillRatio)
	assert.Nil(t, cfg.BlendWeight)
	assert.Nil(t, cfg.Seed)
}

func TestEngineConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  EngineConfig
	}{
		{"zero bays", EngineConfig{Facility: Facility{NumBays: 0, SlotsPerBay: 5}}},
		{"zero slots", EngineConfig{Facility: Facility{NumBays: 2, SlotsPerBay: 0}}},
		{"unknown policy", EngineConfig{Facility: Facility{NumBays: 2, SlotsPerBay: 2}, Policy: "greedy"}},
		{"fill ratio above 1", EngineConfig{Facility: Facility{NumBays: 2, SlotsPerBay: 2}, InitialFillRatio: float64Ptr(1.1)}},
		{"negative fill ratio", EngineConfig{Facility: Facility{NumBays: 2, SlotsPerBay: 2}, InitialFillRatio: float64Ptr(-0.1)}},
		{"zero blend weight", EngineConfig{Facility: Facility{NumBays: 2, SlotsPerBay: 2}, BlendWeight: float64Ptr(0)}},
		{"blend weight above 1", EngineConfig{Facility: Facility{NumBays: 2, SlotsPerBay: 2}, BlendWeight: float64Ptr(1.5)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.cfg.Validate())
		})
	}

	valid := EngineConfig{
		Facility:         Facility{NumBays: 2, SlotsPerBay: 2},
		Policy:           PolicyRandom,
		InitialFillRatio: float64Ptr(0.5),
		BlendWeight:      float64Ptr(1.0),
	}
	assert.NoError(t, valid.Validate())
}

func TestLoadEngineConfig_MissingFile(t *testing.T) {
	_, err := LoadEngineConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
