package engine

import "time"

// DecisionStatus is the outcome kind of a policy invocation. Closed set:
// exactly Allocated or Rejected.
type DecisionStatus string

const (
	StatusAllocated DecisionStatus = "Allocated"
	StatusRejected  DecisionStatus = "Rejected"
)

// AllocationDecision is the result of one AllocationPolicy.Decide call.
// BayAssigned and SlotAssigned are 1-based, the external-facing numbering.
// Never mutated after creation.
type AllocationDecision struct {
	Status       DecisionStatus `json:"status"`
	BayAssigned  int            `json:"bay_assigned,omitempty"`
	SlotAssigned int            `json:"slot_assigned,omitempty"`
	Score        float64        `json:"score,omitempty"`
	DecisionTime time.Time      `json:"decision_time"`
	Reason       string         `json:"reason,omitempty"` // human-readable explanation, set on rejection
}

// Allocated reports whether the decision assigned a cell.
func (d AllocationDecision) Allocated() bool {
	return d.Status == StatusAllocated
}

// Cell returns the assigned cell in 0-based grid coordinates. Only
// meaningful when Allocated() is true.
func (d AllocationDecision) Cell() Cell {
	return Cell{Bay: d.BayAssigned - 1, Slot: d.SlotAssigned - 1}
}

func newAllocated(cell Cell, score float64, now time.Time) AllocationDecision {
	return AllocationDecision{
		Status:       StatusAllocated,
		BayAssigned:  cell.Bay + 1,
		SlotAssigned: cell.Slot + 1,
		Score:        score,
		DecisionTime: now,
	}
}

func newRejected(reason string, now time.Time) AllocationDecision {
	return AllocationDecision{
		Status:       StatusRejected,
		Reason:       reason,
		DecisionTime: now,
	}
}
