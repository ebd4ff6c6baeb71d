// Package executor walks a validated reallocation plan's actions in order,
// dispatches each to its venue adapter, submits and confirms the resulting
// operations, and records the outcome in the allocation history.
//
// Plans are not atomic: on the first action failure the executor stops and
// returns, and already-confirmed actions stand uncompensated. Only each
// action's submission step is atomic. Callers get a per-action result list so
// partial capital movement can be reconciled deterministically.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
	"github.com/ABSFinance/colloseum-monorepo/internal/venue"
)

// Config bounds the confirmation polling loop.
type Config struct {
	// MaxConfirmAttempts is the retry budget per submitted transaction.
	MaxConfirmAttempts int
	// ConfirmBackoff is the fixed delay between confirmation attempts.
	ConfirmBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxConfirmAttempts <= 0 {
		c.MaxConfirmAttempts = 3
	}
	if c.ConfirmBackoff <= 0 {
		c.ConfirmBackoff = 2 * time.Second
	}
	return c
}

// Executor executes validated plans action by action.
type Executor struct {
	meta      domain.PoolMetaStore
	registry  *venue.Registry
	submitter domain.Submitter
	alloc     domain.AllocationStore
	vaults    domain.VaultStore
	cfg       Config
	logger    *slog.Logger
}

// New creates an Executor.
func New(
	meta domain.PoolMetaStore,
	registry *venue.Registry,
	submitter domain.Submitter,
	alloc domain.AllocationStore,
	vaults domain.VaultStore,
	cfg Config,
	logger *slog.Logger,
) *Executor {
	return &Executor{
		meta:      meta,
		registry:  registry,
		submitter: submitter,
		alloc:     alloc,
		vaults:    vaults,
		cfg:       cfg.withDefaults(),
		logger:    logger.With(slog.String("component", "executor")),
	}
}

// Execute runs the plan's actions in order. It returns the per-action report
// and a non-nil error when any action failed; the report is always populated
// for every attempted action. A history-write failure after an on-venue
// confirmation is surfaced as an error wrapping domain.ErrHistoryWrite, since
// confirmed-but-unrecorded movement is a correctness hazard.
func (e *Executor) Execute(ctx context.Context, plan domain.ReallocationPlan) (domain.ExecutionReport, error) {
	report := domain.ExecutionReport{
		ExecutionID: uuid.New().String(),
		PoolID:      plan.PoolID,
		Results:     make([]domain.ActionResult, 0, len(plan.Actions)),
		StartedAt:   time.Now().UTC(),
	}

	log := e.logger.With(
		slog.String("execution_id", report.ExecutionID),
		slog.String("pool_id", plan.PoolID),
	)
	log.InfoContext(ctx, "plan execution started", slog.Int("actions", len(plan.Actions)))

	// The vault stays pending until every action confirms. After a partial
	// failure it remains pending so operators can see the pool is
	// unsettled while they reconcile.
	e.setVaultStatus(ctx, log, plan.PoolID, domain.VaultPending)

	var execErr error
	for i, action := range plan.Actions {
		result := e.runAction(ctx, plan, i, action, log)
		report.Results = append(report.Results, result)

		if !result.Succeeded() {
			execErr = fmt.Errorf("executor: action %d (%s %s@%s): %s",
				i, action.Kind, fmtAmount(action.Amount), action.VenueID, result.Error)
			log.ErrorContext(ctx, "plan aborted on action failure",
				slog.Int("action_index", i),
				slog.String("venue_id", action.VenueID),
				slog.String("error", result.Error),
			)
			break
		}
	}

	report.CompletedAt = time.Now().UTC()
	report.Success = execErr == nil && len(report.Results) == len(plan.Actions)
	report.Utilization = e.utilization(ctx, plan)

	if report.Success {
		e.setVaultStatus(ctx, log, plan.PoolID, domain.VaultConfirmed)
	}

	log.InfoContext(ctx, "plan execution finished",
		slog.Bool("success", report.Success),
		slog.Int("confirmed", report.ConfirmedCount()),
		slog.Int("attempted", len(report.Results)),
	)
	return report, execErr
}

// setVaultStatus records the pool's lifecycle transition. A write failure is
// logged and never aborts the plan.
func (e *Executor) setVaultStatus(ctx context.Context, log *slog.Logger, poolID string, status domain.VaultStatus) {
	if err := e.vaults.UpdateStatus(ctx, poolID, status); err != nil {
		log.WarnContext(ctx, "vault status update failed",
			slog.String("status", string(status)),
			slog.String("error", err.Error()),
		)
	}
}

// runAction drives one action through pending -> submitted -> confirmed or
// failed, writing the allocation-history record only after confirmation.
func (e *Executor) runAction(ctx context.Context, plan domain.ReallocationPlan, index int, action domain.Action, log *slog.Logger) domain.ActionResult {
	result := domain.ActionResult{
		Index:  index,
		Action: action,
		Status: domain.ActionPending,
	}
	fail := func(err error) domain.ActionResult {
		result.Status = domain.ActionFailed
		result.Error = err.Error()
		return result
	}

	// Pool metadata is an external lookup, queried per action so venue
	// registrations added mid-plan windows are still honored.
	meta, err := e.meta.Get(ctx, plan.PoolID)
	if err != nil {
		return fail(fmt.Errorf("pool metadata lookup: %w", err))
	}
	reg, ok := meta.Venue(action.VenueID)
	if !ok {
		return fail(fmt.Errorf("venue %s not registered for pool %s: %w",
			action.VenueID, plan.PoolID, domain.ErrNotFound))
	}
	if action.VenueKind != "" && action.VenueKind != reg.Kind {
		return fail(fmt.Errorf("action venue kind %s does not match registration %s", action.VenueKind, reg.Kind))
	}

	ops, err := e.registry.Build(ctx, action, venue.Context{
		PoolID:       plan.PoolID,
		VaultAsset:   meta.UnderlyingAsset,
		Registration: reg,
	})
	if err != nil {
		return fail(fmt.Errorf("build operations: %w", err))
	}
	ops.PoolID = plan.PoolID

	txID, err := e.submitter.Submit(ctx, ops)
	if err != nil {
		return fail(fmt.Errorf("submit: %w", err))
	}
	result.Status = domain.ActionSubmitted
	result.TransactionID = txID

	log.InfoContext(ctx, "action submitted",
		slog.Int("action_index", index),
		slog.String("venue_id", action.VenueID),
		slog.String("transaction_id", txID),
		slog.Int("operations", len(ops.Operations)),
	)

	err = withFixedRetry(ctx, e.cfg.MaxConfirmAttempts, e.cfg.ConfirmBackoff, func(ctx context.Context) error {
		return e.submitter.Confirm(ctx, txID)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotConfirmed) {
			err = fmt.Errorf("confirmation attempts exhausted: %w", err)
		}
		return fail(fmt.Errorf("confirm %s: %w", txID, err))
	}
	result.Status = domain.ActionConfirmed

	// Record before moving to the next action so a crash leaves a
	// consistent-per-action history.
	rec := domain.AllocationRecord{
		PoolID:    plan.PoolID,
		VenueID:   action.VenueID,
		Amount:    signedAmount(action),
		Status:    domain.VaultConfirmed,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.alloc.Append(ctx, rec); err != nil {
		return fail(fmt.Errorf("%w: %v", domain.ErrHistoryWrite, err))
	}
	return result
}

// utilization is best-effort audit context; a read failure only loses the
// metrics, never the report.
func (e *Executor) utilization(ctx context.Context, plan domain.ReallocationPlan) *domain.UtilizationMetrics {
	current, _, err := e.alloc.ReadCurrent(ctx, plan.PoolID)
	if err != nil {
		return nil
	}
	currentByVenue := make(map[string]float64, len(current))
	for _, entry := range current {
		currentByVenue[entry.VenueID] = entry.Amount
	}
	targetByVenue := make(map[string]float64, len(plan.ExpectedAllocation))
	for _, entry := range plan.ExpectedAllocation {
		targetByVenue[entry.VenueID] = entry.Amount
	}
	m := domain.ComputeUtilization(currentByVenue, targetByVenue)
	return &m
}

// signedAmount encodes direction into the history row: deposits add capital
// at the venue, withdrawals remove it.
func signedAmount(a domain.Action) float64 {
	if a.Kind == domain.ActionWithdraw {
		return -a.Amount
	}
	return a.Amount
}

func fmtAmount(v float64) string {
	return fmt.Sprintf("%.4f", v)
}
