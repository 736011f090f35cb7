// The batch simulation loop: replays an ordered vehicle batch through one
// policy against a fresh private grid and aggregates the outcomes.

package engine

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// VehicleOutcome is the per-vehicle result of a simulation run, in input
// order. Exactly one of Decision (with any status) or Error is meaningful:
// Error carries the message of a per-request failure swallowed by the run.
type VehicleOutcome struct {
	VehicleID string             `json:"vehicle_id"`
	Decision  AllocationDecision `json:"decision"`
	Error     string             `json:"error,omitempty"`
}

// Failed reports whether the vehicle ended without an allocation, either by
// rejection or by a per-request error.
func (o VehicleOutcome) Failed() bool {
	return o.Error != "" || !o.Decision.Allocated()
}

// SimulationReport aggregates a full batch replay.
// AverageScore is the mean score over successful allocations only; it is 0
// by definition when Successful == 0. TotalProcessingTime is the wall-clock
// duration of the pass, reported for observability only.
type SimulationReport struct {
	Policy              string           `json:"policy"`
	TotalVehicles       int              `json:"total_vehicles"`
	Successful          int              `json:"successful"`
	Failed              int              `json:"failed"`
	SuccessRate         float64          `json:"success_rate"`
	AverageScore        float64          `json:"average_score"`
	TotalProcessingTime time.Duration    `json:"total_processing_time"`
	Outcomes            []VehicleOutcome `json:"outcomes"`
}

// Print displays the aggregated report at the end of a run.
func (r *SimulationReport) Print() {
	fmt.Println("=== Simulation Report ===")
	fmt.Printf("Policy               : %s\n", r.Policy)
	fmt.Printf("Total Vehicles       : %d\n", r.TotalVehicles)
	fmt.Printf("Successful           : %d\n", r.Successful)
	fmt.Printf("Failed               : %d\n", r.Failed)
	fmt.Printf("Success Rate         : %.1f%%\n", r.SuccessRate*100)
	if r.Successful > 0 {
		fmt.Printf("Average Score        : %.4f\n", r.AverageScore)
	}
	fmt.Printf("Processing Time      : %s\n", r.TotalProcessingTime)
}

// SimulationRunner replays vehicle batches. The zero value is ready to use;
// decision timestamps come from the policy's own clock.
type SimulationRunner struct{}

// Run creates one fresh grid for the facility, seeds it to initialFillRatio,
// then processes the requests strictly in input order: each Allocated
// decision is committed with grid.Occupy before the next request is decided,
// so later requests see earlier ones' effects. Any per-request failure is
// recorded as a failed outcome and processing continues; one bad request
// never aborts the batch. The grid is private to the run, so no external
// locking is needed.
func (r *SimulationRunner) Run(requests []VehicleRequest, policy AllocationPolicy, facility Facility, initialFillRatio float64, seed int64) (*SimulationReport, error) {
	if err := facility.Validate(); err != nil {
		return nil, fmt.Errorf("invalid facility: %w", err)
	}
	grid := NewOccupancyGrid(facility, seed)
	if err := grid.Reset(initialFillRatio); err != nil {
		return nil, err
	}

	started := time.Now()
	report := &SimulationReport{
		Policy:        policy.Name(),
		TotalVehicles: len(requests),
		Outcomes:      make([]VehicleOutcome, 0, len(requests)),
	}

	var scoreSum float64
	for _, req := range requests {
		outcome := r.processOne(req, policy, grid)
		if outcome.Failed() {
			report.Failed++
		} else {
			report.Successful++
			scoreSum += outcome.Decision.Score
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	if report.TotalVehicles > 0 {
		report.SuccessRate = float64(report.Successful) / float64(report.TotalVehicles)
	}
	if report.Successful > 0 {
		report.AverageScore = scoreSum / float64(report.Successful)
	}
	report.TotalProcessingTime = time.Since(started)

	logrus.Infof("Simulation complete: policy=%s vehicles=%d successful=%d failed=%d",
		report.Policy, report.TotalVehicles, report.Successful, report.Failed)
	return report, nil
}

// processOne runs decide+commit for a single request, converting every
// failure into an outcome message.
func (r *SimulationRunner) processOne(req VehicleRequest, policy AllocationPolicy, grid *OccupancyGrid) VehicleOutcome {
	outcome := VehicleOutcome{VehicleID: req.VehicleID}

	decision, err := policy.Decide(req, grid)
	if err != nil {
		logrus.Debugf("vehicle %s: decide failed: %v", req.VehicleID, err)
		outcome.Error = err.Error()
		return outcome
	}
	outcome.Decision = decision
	if !decision.Allocated() {
		return outcome
	}

	cell := decision.Cell()
	if err := grid.Occupy(cell.Bay, cell.Slot, req.Reservation()); err != nil {
		logrus.Warnf("vehicle %s: commit of %s failed: %v", req.VehicleID, cell, err)
		outcome.Decision = AllocationDecision{}
		outcome.Error = err.Error()
	}
	return outcome
}

// RunAll replays the same batch through each named policy against its own
// fresh grid and returns the reports keyed by policy name. Policies come
// from NewPolicy with the given options, so the comparison uses identical
// configuration apart from the decision procedure itself.
func (r *SimulationRunner) RunAll(requests []VehicleRequest, names []string, opts PolicyOptions, facility Facility, initialFillRatio float64, seed int64) (map[string]*SimulationReport, error) {
	reports := make(map[string]*SimulationReport, len(names))
	for _, name := range names {
		policy, err := NewPolicy(name, opts)
		if err != nil {
			return nil, err
		}
		report, err := r.Run(requests, policy, facility, initialFillRatio, seed)
		if err != nil {
			return nil, fmt.Errorf("policy %s: %w", name, err)
		}
		reports[name] = report
	}
	return reports, nil
}
