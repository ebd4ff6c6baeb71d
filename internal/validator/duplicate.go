package validator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

// DefaultDuplicateThresholdPct is the per-venue percentage difference under
// which an allocation is considered unchanged.
const DefaultDuplicateThresholdPct = 0.1

// DuplicateDetector compares a plan's target allocation to the pool's last
// recorded allocation. A match within the threshold produces a non-blocking
// warning so operators can audit redundant re-execution; it never rejects.
type DuplicateDetector struct {
	store        domain.AllocationStore
	thresholdPct float64
}

// NewDuplicateDetector creates a detector reading prior allocations from
// store. thresholdPct <= 0 selects the default.
func NewDuplicateDetector(store domain.AllocationStore, thresholdPct float64) *DuplicateDetector {
	if thresholdPct <= 0 {
		thresholdPct = DefaultDuplicateThresholdPct
	}
	return &DuplicateDetector{store: store, thresholdPct: thresholdPct}
}

// Check returns a DUPLICATE_REALLOCATION warning when the plan's expected
// allocation matches the pool's current allocation within the threshold.
// Absence of prior state is not a duplicate.
func (d *DuplicateDetector) Check(ctx context.Context, plan domain.ReallocationPlan) (*domain.ValidationWarning, error) {
	current, recordedAt, err := d.store.ReadCurrent(ctx, plan.PoolID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("duplicate check: read current allocation: %w", err)
	}

	currentByVenue := make(map[string]float64, len(current))
	for _, e := range current {
		currentByVenue[e.VenueID] = e.Amount
	}
	expectedByVenue := make(map[string]float64, len(plan.ExpectedAllocation))
	for _, e := range plan.ExpectedAllocation {
		expectedByVenue[e.VenueID] = e.Amount
	}

	// Venue sets must match exactly before amounts are compared.
	if len(currentByVenue) != len(expectedByVenue) {
		return nil, nil
	}
	for venue := range expectedByVenue {
		if _, ok := currentByVenue[venue]; !ok {
			return nil, nil
		}
	}

	for venue, expected := range expectedByVenue {
		if diffPct(currentByVenue[venue], expected) > d.thresholdPct {
			return nil, nil
		}
	}

	return &domain.ValidationWarning{
		Code: domain.CodeDuplicateReallocation,
		Message: fmt.Sprintf("target allocation matches allocation recorded at %s within %.2f%%",
			recordedAt.UTC().Format(time.RFC3339), d.thresholdPct),
		ExistingTimestamp: recordedAt,
	}, nil
}

// diffPct is the relative difference between two amounts in percent, using
// whichever side is larger as the base so the measure is symmetric.
func diffPct(a, b float64) float64 {
	if a == 0 && b == 0 {
		return 0
	}
	base := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) / base * 100
}
