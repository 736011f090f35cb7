// Package engine provides the core parking allocation engine.
//
// # Reading Guide
//
// Start with these three files to understand the allocation kernel:
//   - grid.go: OccupancyGrid, the single source of truth for cell state
//   - policy.go: the AllocationPolicy interface and its three implementations
//   - runner.go: the batch simulation loop and its report
//
// # Architecture
//
// A VehicleRequest flows through an AllocationPolicy, which reads the grid
// (and, for the learned policy, the ScoringAdapter) and produces an
// AllocationDecision. Decide never mutates the grid; the caller commits an
// Allocated decision with OccupancyGrid.Occupy. SimulationRunner loops this
// over an ordered batch against a private grid and aggregates the outcomes.
//
// # Key Interfaces
//
// The extension point is a single-method interface:
//   - AllocationPolicy: map a request and the current grid to a decision
//
// Policies are constructed by name via NewPolicy; valid names live in
// ValidPolicies so config validation and construction cannot drift apart.
package engine
