package validator

import (
	"fmt"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

// negEpsilon absorbs float rounding when a withdrawal drains a venue exactly.
const negEpsilon = 1e-9

// VerifyLiquidity projects per-venue positions through the plan's actions in
// order and reports any venue whose projected position goes negative at any
// intermediate step. Walking in order means a withdrawal that funds a later
// deposit is honored, while an infeasible ordering (deposit before the
// withdrawal that pays for it cannot go negative, but over-withdrawing can)
// is rejected even if the end state balances out.
func VerifyLiquidity(positions map[string]float64, actions []domain.Action) []domain.ValidationError {
	projected := make(map[string]float64, len(positions))
	for venue, amount := range positions {
		projected[venue] = amount
	}

	var errs []domain.ValidationError
	for i, a := range actions {
		switch a.Kind {
		case domain.ActionWithdraw:
			projected[a.VenueID] -= a.Amount
		case domain.ActionDeposit:
			projected[a.VenueID] += a.Amount
		}

		if projected[a.VenueID] < -negEpsilon {
			errs = append(errs, domain.ValidationError{
				Code:    domain.CodeInsufficientLiquidity,
				VenueID: a.VenueID,
				Message: fmt.Sprintf("action %d would leave venue %s at %.4f (withdrew %.4f)",
					i, a.VenueID, projected[a.VenueID], a.Amount),
			})
			// Reset so one drained venue does not cascade duplicate errors
			// for every later action touching it.
			projected[a.VenueID] = 0
		}
	}
	return errs
}
