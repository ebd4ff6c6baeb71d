// Package domain defines the shared data model for the reallocation
// execution pipeline: plans, allocations, positions, validation results,
// venue operations, and the store/bus/transport interfaces implemented by
// the infrastructure packages.
package domain

import "time"

// ActionKind is the direction of a single capital movement.
type ActionKind string

const (
	ActionDeposit  ActionKind = "deposit"
	ActionWithdraw ActionKind = "withdraw"
)

// VenueKind identifies the external lending/yield protocol an action targets.
type VenueKind string

const (
	VenueAaveV3     VenueKind = "aave_v3"
	VenueCompoundV3 VenueKind = "compound_v3"
	VenueMorphoBlue VenueKind = "morpho_blue"
	VenueYearnV3    VenueKind = "yearn_v3"
)

// Action is one deposit or withdraw step of a reallocation plan.
// Amount is always positive; Kind carries the direction.
type Action struct {
	VenueID   string     `json:"venue_id"`
	VenueKind VenueKind  `json:"venue_kind"`
	Amount    float64    `json:"amount"`
	Kind      ActionKind `json:"kind"`
}

// AllocationEntry is one venue's share of a pool's capital.
type AllocationEntry struct {
	PoolID  string  `json:"pool_id"`
	VenueID string  `json:"allocated_venue_id"`
	Amount  float64 `json:"amount"`
}

// ReallocationPlan is a proposed, ordered set of capital movements for one
// pool. Plans are produced upstream, consumed exactly once by this pipeline,
// and never mutated.
type ReallocationPlan struct {
	PoolID             string            `json:"pool_id"`
	Actions            []Action          `json:"actions"`
	ExpectedAllocation []AllocationEntry `json:"expected_allocation"`
	Timestamp          time.Time         `json:"timestamp"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// TotalActionAmount sums the amounts of all actions regardless of direction.
func (p ReallocationPlan) TotalActionAmount() float64 {
	var total float64
	for _, a := range p.Actions {
		total += a.Amount
	}
	return total
}

// ExpectedTotal sums the target allocation amounts. It is the plan's implied
// total capital and the denominator for per-entry percentages.
func (p ReallocationPlan) ExpectedTotal() float64 {
	var total float64
	for _, e := range p.ExpectedAllocation {
		total += e.Amount
	}
	return total
}

// EntryPercentage converts an allocation entry's amount to a percentage of
// the plan's expected total. Returns 0 when the total is zero.
func (p ReallocationPlan) EntryPercentage(e AllocationEntry) float64 {
	total := p.ExpectedTotal()
	if total == 0 {
		return 0
	}
	return e.Amount / total * 100
}
