package validator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

// Validator orchestrates the constraint engine, liquidity verifier, and
// duplicate detector into one admission decision. A failure inside any
// sub-check is captured into a VALIDATION_ERROR rather than propagated, so a
// single broken check cannot crash the pipeline.
type Validator struct {
	constraints domain.Constraints
	positions   domain.PositionSource
	duplicates  *DuplicateDetector
	logger      *slog.Logger
}

// New creates a Validator. positions supplies the per-venue snapshot for the
// liquidity check; duplicates may share the executor's allocation store.
func New(
	constraints domain.Constraints,
	positions domain.PositionSource,
	duplicates *DuplicateDetector,
	logger *slog.Logger,
) *Validator {
	return &Validator{
		constraints: constraints,
		positions:   positions,
		duplicates:  duplicates,
		logger:      logger.With(slog.String("component", "validator")),
	}
}

// Validate runs every check against the plan and aggregates errors and
// warnings. IsValid is true exactly when no errors were produced; warnings
// never block.
func (v *Validator) Validate(ctx context.Context, plan domain.ReallocationPlan) domain.ValidationResult {
	result := domain.ValidationResult{
		Errors:    []domain.ValidationError{},
		Warnings:  []domain.ValidationWarning{},
		Timestamp: time.Now().UTC(),
	}

	// Liquidity snapshot is fetched once, up front: the constraint engine
	// also needs the deployed total as its percentage base.
	snapshot, snapErr := v.snapshot(ctx, plan.PoolID)
	if snapErr != nil {
		result.Errors = append(result.Errors, *snapErr)
	}

	totalCapital := 0.0
	for _, amount := range snapshot {
		totalCapital += amount
	}
	if totalCapital == 0 {
		totalCapital = plan.ExpectedTotal()
	}

	v.runCheck(&result, "constraints", func() []domain.ValidationError {
		return CheckConstraints(plan, totalCapital, v.constraints)
	})

	if snapErr == nil {
		v.runCheck(&result, "liquidity", func() []domain.ValidationError {
			return VerifyLiquidity(snapshot, plan.Actions)
		})
	}

	if v.duplicates != nil {
		v.runDuplicateCheck(ctx, &result, plan)
	}

	result.IsValid = len(result.Errors) == 0

	v.logger.InfoContext(ctx, "plan validated",
		slog.String("pool_id", plan.PoolID),
		slog.Bool("is_valid", result.IsValid),
		slog.Int("errors", len(result.Errors)),
		slog.Int("warnings", len(result.Warnings)),
	)
	return result
}

// snapshot fetches the position snapshot, converting a fetch failure into a
// blocking VALIDATION_ERROR (liquidity cannot be verified without it).
func (v *Validator) snapshot(ctx context.Context, poolID string) (map[string]float64, *domain.ValidationError) {
	snapshot, err := v.positions.Snapshot(ctx, poolID)
	if err != nil {
		v.logger.WarnContext(ctx, "position snapshot failed",
			slog.String("pool_id", poolID),
			slog.String("error", err.Error()),
		)
		return nil, &domain.ValidationError{
			Code:    domain.CodeValidationError,
			Message: fmt.Sprintf("position snapshot failed: %v", err),
		}
	}
	return snapshot, nil
}

// runCheck executes one pure sub-check with panic recovery.
func (v *Validator) runCheck(result *domain.ValidationResult, name string, check func() []domain.ValidationError) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("validation check panicked",
				slog.String("check", name),
				slog.Any("panic", r),
			)
			result.Errors = append(result.Errors, domain.ValidationError{
				Code:    domain.CodeValidationError,
				Message: fmt.Sprintf("%s check failed: %v", name, r),
			})
		}
	}()
	result.Errors = append(result.Errors, check()...)
}

func (v *Validator) runDuplicateCheck(ctx context.Context, result *domain.ValidationResult, plan domain.ReallocationPlan) {
	defer func() {
		if r := recover(); r != nil {
			result.Errors = append(result.Errors, domain.ValidationError{
				Code:    domain.CodeValidationError,
				Message: fmt.Sprintf("duplicate check failed: %v", r),
			})
		}
	}()

	warning, err := v.duplicates.Check(ctx, plan)
	if err != nil {
		result.Errors = append(result.Errors, domain.ValidationError{
			Code:    domain.CodeValidationError,
			Message: err.Error(),
		})
		return
	}
	if warning != nil {
		result.Warnings = append(result.Warnings, *warning)
	}
}
