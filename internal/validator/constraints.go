// Package validator implements the admission decision for reallocation
// plans: the rule-based constraint engine, the ordered liquidity projection,
// and the duplicate detector, aggregated by Validator into one
// ValidationResult.
package validator

import (
	"fmt"
	"math"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

// totalTolerancePct is the floating-point tolerance for the
// total-allocation-sums-to-100% rule, in percentage points.
const totalTolerancePct = 0.01

// CheckConstraints evaluates every configured rule against the plan and
// returns the violations. An empty slice means the plan passes. The function
// is pure: no side effects, deterministic, safe to re-run.
//
// totalCapital is the reference capital the per-entry percentages are
// computed against (the pool's deployed total, or the plan's expected total
// when the pool has no history yet).
func CheckConstraints(plan domain.ReallocationPlan, totalCapital float64, c domain.Constraints) []domain.ValidationError {
	var errs []domain.ValidationError

	// Rule 1: distinct allocation entry count.
	if c.MaxAssets > 0 && len(plan.ExpectedAllocation) > c.MaxAssets {
		errs = append(errs, domain.ValidationError{
			Code: domain.CodeAssetCountExceeded,
			Message: fmt.Sprintf("allocation targets %d venues, max is %d",
				len(plan.ExpectedAllocation), c.MaxAssets),
		})
	}

	// Rules 2+3: per-entry bounds and total, both in percent of totalCapital.
	if totalCapital > 0 {
		var sumPct float64
		for _, e := range plan.ExpectedAllocation {
			pct := e.Amount / totalCapital * 100
			sumPct += pct

			if pct < c.MinAllocationPercentage {
				errs = append(errs, domain.ValidationError{
					Code:    domain.CodeMinAllocationViolated,
					VenueID: e.VenueID,
					Message: fmt.Sprintf("venue %s allocation %.4f%% below minimum %.4f%%",
						e.VenueID, pct, c.MinAllocationPercentage),
				})
			}
			if c.MaxAllocationPercentage > 0 && pct > c.MaxAllocationPercentage {
				errs = append(errs, domain.ValidationError{
					Code:    domain.CodeMaxAllocationViolated,
					VenueID: e.VenueID,
					Message: fmt.Sprintf("venue %s allocation %.4f%% above maximum %.4f%%",
						e.VenueID, pct, c.MaxAllocationPercentage),
				})
			}
		}

		if math.Abs(sumPct-100) > totalTolerancePct {
			errs = append(errs, domain.ValidationError{
				Code:    domain.CodeTotalAllocationInvalid,
				Message: fmt.Sprintf("allocation percentages sum to %.4f%%, expected 100%%", sumPct),
			})
		}
	}

	// Rule 4: total transaction value cap.
	if c.MaxTransactionValue > 0 {
		total := plan.TotalActionAmount()
		if total > c.MaxTransactionValue {
			errs = append(errs, domain.ValidationError{
				Code: domain.CodeMaxTxValueExceeded,
				Message: fmt.Sprintf("plan moves %.2f, max transaction value is %.2f",
					total, c.MaxTransactionValue),
			})
		}
	}

	return errs
}
