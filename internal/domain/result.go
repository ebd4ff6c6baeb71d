package domain

import "time"

// ActionStatus is the per-action execution state machine.
type ActionStatus string

const (
	ActionPending   ActionStatus = "pending"
	ActionSubmitted ActionStatus = "submitted"
	ActionConfirmed ActionStatus = "confirmed"
	ActionFailed    ActionStatus = "failed"
)

// ActionResult records the outcome of one attempted action. TransactionID is
// empty when the action failed before submission.
type ActionResult struct {
	Index         int          `json:"index"`
	Action        Action       `json:"action"`
	Status        ActionStatus `json:"status"`
	TransactionID string       `json:"transaction_id,omitempty"`
	Error         string       `json:"error,omitempty"`
}

// Succeeded reports whether the action reached confirmation.
func (r ActionResult) Succeeded() bool {
	return r.Status == ActionConfirmed
}

// ExecutionReport is the executor's full outcome for one plan. Plans are not
// atomic across actions: a report with Success=false may still contain
// confirmed results for earlier actions, and those stand uncompensated.
type ExecutionReport struct {
	ExecutionID string         `json:"execution_id"`
	PoolID      string         `json:"pool_id"`
	Results     []ActionResult `json:"results"`
	Success     bool           `json:"success"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
	// Utilization is audit context comparing confirmed movement against the
	// plan's target allocation. Never used for gating.
	Utilization *UtilizationMetrics `json:"utilization,omitempty"`
}

// ConfirmedCount returns how many actions reached confirmation.
func (r ExecutionReport) ConfirmedCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Succeeded() {
			n++
		}
	}
	return n
}

// StatusTopic maps the report outcome to the bus status segment used when
// publishing: success, partial, or error.
func (r ExecutionReport) StatusTopic() string {
	switch {
	case r.Success:
		return "success"
	case r.ConfirmedCount() > 0:
		return "partial"
	default:
		return "error"
	}
}
