package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EngineConfig holds the engine configuration surface, loadable from a YAML
// file. Nil pointer fields mean "not set in YAML" — flag defaults stay in
// effect. String fields use empty string for "not set".
type EngineConfig struct {
	Facility         Facility `yaml:"facility"`
	Policy           string   `yaml:"policy"`
	InitialFillRatio *float64 `yaml:"initial_fill_ratio"`
	BlendWeight      *float64 `yaml:"blend_weight"`
	Seed             *int64   `yaml:"seed"`
}

// LoadEngineConfig reads and parses a YAML engine configuration file.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading engine config: %w", err)
	}
	var cfg EngineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing engine config: %w", err)
	}
	return &cfg, nil
}

// Validate checks policy name and parameter ranges in the config.
func (c *EngineConfig) Validate() error {
	if err := c.Facility.Validate(); err != nil {
		return err
	}
	if !ValidPolicies[c.Policy] {
		return fmt.Errorf("unknown allocation policy %q", c.Policy)
	}
	if c.InitialFillRatio != nil && (*c.InitialFillRatio < 0 || *c.InitialFillRatio > 1) {
		return fmt.Errorf("initial_fill_ratio must be in [0,1], got %f", *c.InitialFillRatio)
	}
	if c.BlendWeight != nil && (*c.BlendWeight <= 0 || *c.BlendWeight > 1) {
		return fmt.Errorf("blend_weight must be in (0,1], got %f", *c.BlendWeight)
	}
	return nil
}
