package domain

import "time"

// ValidationCode enumerates the machine-readable reasons a plan can be
// rejected or flagged.
type ValidationCode string

const (
	CodeAssetCountExceeded     ValidationCode = "ASSET_COUNT_EXCEEDED"
	CodeMinAllocationViolated  ValidationCode = "MIN_ALLOCATION_VIOLATED"
	CodeMaxAllocationViolated  ValidationCode = "MAX_ALLOCATION_VIOLATED"
	CodeTotalAllocationInvalid ValidationCode = "TOTAL_ALLOCATION_INVALID"
	CodeMaxTxValueExceeded     ValidationCode = "MAX_TRANSACTION_VALUE_EXCEEDED"
	CodeInsufficientLiquidity  ValidationCode = "INSUFFICIENT_LIQUIDITY"
	CodeDuplicateReallocation  ValidationCode = "DUPLICATE_REALLOCATION"
	CodeVaultUnavailable       ValidationCode = "VAULT_UNAVAILABLE"
	CodeValidationError        ValidationCode = "VALIDATION_ERROR"
)

// ValidationError blocks execution of a plan.
type ValidationError struct {
	Code    ValidationCode `json:"code"`
	Message string         `json:"message"`
	VenueID string         `json:"venue_id,omitempty"`
}

// ValidationWarning is attached to the result for audit but never blocks
// execution.
type ValidationWarning struct {
	Code    ValidationCode `json:"code"`
	Message string         `json:"message"`
	// ExistingTimestamp carries the timestamp of the prior allocation a
	// duplicate warning was matched against.
	ExistingTimestamp time.Time `json:"existing_timestamp,omitempty"`
}

// ValidationResult is the Validator's admission decision for one plan.
type ValidationResult struct {
	IsValid   bool                `json:"is_valid"`
	Errors    []ValidationError   `json:"errors"`
	Warnings  []ValidationWarning `json:"warnings"`
	Timestamp time.Time           `json:"timestamp"`
}

// Constraints is the immutable per-deployment rule configuration consumed by
// the constraint engine. Percentage fields are expressed as 0-100 values.
type Constraints struct {
	MaxAssets               int
	MinAllocationPercentage float64
	MaxAllocationPercentage float64
	// MaxDailyChangePercentage is defined for forward compatibility but is
	// not consulted by any validation rule.
	MaxDailyChangePercentage float64
	MaxTransactionValue      float64
}
