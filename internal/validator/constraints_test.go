package validator

import (
	"testing"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

func testConstraints() domain.Constraints {
	return domain.Constraints{
		MaxAssets:               3,
		MinAllocationPercentage: 5,
		MaxAllocationPercentage: 80,
		MaxTransactionValue:     1000,
	}
}

func codesOf(errs []domain.ValidationError) []domain.ValidationCode {
	codes := make([]domain.ValidationCode, 0, len(errs))
	for _, e := range errs {
		codes = append(codes, e.Code)
	}
	return codes
}

func hasCode(errs []domain.ValidationError, code domain.ValidationCode) bool {
	for _, e := range errs {
		if e.Code == code {
			return true
		}
	}
	return false
}

func TestCheckConstraints(t *testing.T) {
	tests := []struct {
		name         string
		plan         domain.ReallocationPlan
		totalCapital float64
		wantCodes    []domain.ValidationCode
	}{
		{
			name: "valid plan passes",
			plan: domain.ReallocationPlan{
				PoolID: "pool-1",
				Actions: []domain.Action{
					{VenueID: "aave-usdc", Amount: 100, Kind: domain.ActionDeposit},
				},
				ExpectedAllocation: []domain.AllocationEntry{
					{VenueID: "aave-usdc", Amount: 600},
					{VenueID: "compound-usdc", Amount: 400},
				},
			},
			totalCapital: 1000,
			wantCodes:    nil,
		},
		{
			name: "too many venues",
			plan: domain.ReallocationPlan{
				ExpectedAllocation: []domain.AllocationEntry{
					{VenueID: "v1", Amount: 250},
					{VenueID: "v2", Amount: 250},
					{VenueID: "v3", Amount: 250},
					{VenueID: "v4", Amount: 250},
				},
			},
			totalCapital: 1000,
			wantCodes:    []domain.ValidationCode{domain.CodeAssetCountExceeded},
		},
		{
			name: "entry below minimum",
			plan: domain.ReallocationPlan{
				ExpectedAllocation: []domain.AllocationEntry{
					{VenueID: "v1", Amount: 980},
					{VenueID: "v2", Amount: 20},
				},
			},
			totalCapital: 1000,
			wantCodes:    []domain.ValidationCode{domain.CodeMaxAllocationViolated, domain.CodeMinAllocationViolated},
		},
		{
			name: "percentages do not sum to 100",
			plan: domain.ReallocationPlan{
				ExpectedAllocation: []domain.AllocationEntry{
					{VenueID: "v1", Amount: 600},
					{VenueID: "v2", Amount: 395},
				},
			},
			totalCapital: 1000,
			wantCodes:    []domain.ValidationCode{domain.CodeTotalAllocationInvalid},
		},
		{
			name: "sum within tolerance passes",
			plan: domain.ReallocationPlan{
				ExpectedAllocation: []domain.AllocationEntry{
					{VenueID: "v1", Amount: 600.00004},
					{VenueID: "v2", Amount: 399.99997},
				},
			},
			totalCapital: 1000,
			wantCodes:    nil,
		},
		{
			name: "transaction value cap",
			plan: domain.ReallocationPlan{
				Actions: []domain.Action{
					{VenueID: "v1", Amount: 700, Kind: domain.ActionWithdraw},
					{VenueID: "v2", Amount: 700, Kind: domain.ActionDeposit},
				},
				ExpectedAllocation: []domain.AllocationEntry{
					{VenueID: "v1", Amount: 300},
					{VenueID: "v2", Amount: 700},
				},
			},
			totalCapital: 1000,
			wantCodes:    []domain.ValidationCode{domain.CodeMaxTxValueExceeded},
		},
		{
			name: "zero capital skips percentage rules",
			plan: domain.ReallocationPlan{
				ExpectedAllocation: []domain.AllocationEntry{
					{VenueID: "v1", Amount: 600},
				},
			},
			totalCapital: 0,
			wantCodes:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := CheckConstraints(tt.plan, tt.totalCapital, testConstraints())

			if len(errs) != len(tt.wantCodes) {
				t.Fatalf("got %d errors %v, want %d %v",
					len(errs), codesOf(errs), len(tt.wantCodes), tt.wantCodes)
			}
			for _, code := range tt.wantCodes {
				if !hasCode(errs, code) {
					t.Errorf("missing expected code %s in %v", code, codesOf(errs))
				}
			}
		})
	}
}

func TestCheckConstraintsIsPure(t *testing.T) {
	plan := domain.ReallocationPlan{
		PoolID: "pool-1",
		Actions: []domain.Action{
			{VenueID: "v1", Amount: 2000, Kind: domain.ActionDeposit},
		},
		ExpectedAllocation: []domain.AllocationEntry{
			{VenueID: "v1", Amount: 980},
			{VenueID: "v2", Amount: 20},
		},
	}

	first := CheckConstraints(plan, 1000, testConstraints())
	second := CheckConstraints(plan, 1000, testConstraints())

	if len(first) != len(second) {
		t.Fatalf("repeated runs differ: %d vs %d errors", len(first), len(second))
	}
	for i := range first {
		if first[i].Code != second[i].Code || first[i].Message != second[i].Message {
			t.Errorf("error %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}
