package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
	"github.com/ABSFinance/colloseum-monorepo/internal/executor"
	"github.com/ABSFinance/colloseum-monorepo/internal/validator"
)

// planPayload is the wire shape of an inbound plan message. The pool id
// comes from the topic, not the payload.
type planPayload struct {
	Actions            []domain.Action          `json:"actions"`
	ExpectedAllocation []domain.AllocationEntry `json:"expected_allocation"`
	Timestamp          time.Time                `json:"timestamp"`
	Metadata           map[string]string        `json:"metadata,omitempty"`
}

// Config tunes the consumer.
type Config struct {
	// Workers bounds how many pools are processed concurrently.
	Workers int
	// LockTTL is the distributed per-pool lock lease. It must exceed the
	// worst-case validate+execute duration.
	LockTTL time.Duration
	// LockRetryDelay is the wait between attempts when another process
	// holds a pool's lock.
	LockRetryDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 5 * time.Minute
	}
	if c.LockRetryDelay <= 0 {
		c.LockRetryDelay = 2 * time.Second
	}
	return c
}

// Consumer subscribes to the plan topic pattern and runs each admitted plan
// to completion. Messages for the same pool are strictly serialized, first by
// an in-process keyed mutex and then by a distributed lock, so two plans can
// never be validated against the same stale liquidity snapshot and both
// execute. Messages for different pools run concurrently up to the worker
// bound.
type Consumer struct {
	bus       domain.SignalBus
	locks     domain.LockManager
	vaults    domain.VaultStore
	validator *validator.Validator
	executor  *executor.Executor
	reporter  *Reporter
	cfg       Config
	logger    *slog.Logger

	local *poolLocks
}

// NewConsumer creates a Consumer.
func NewConsumer(
	bus domain.SignalBus,
	locks domain.LockManager,
	vaults domain.VaultStore,
	v *validator.Validator,
	e *executor.Executor,
	reporter *Reporter,
	cfg Config,
	logger *slog.Logger,
) *Consumer {
	return &Consumer{
		bus:       bus,
		locks:     locks,
		vaults:    vaults,
		validator: v,
		executor:  e,
		reporter:  reporter,
		cfg:       cfg.withDefaults(),
		logger:    logger.With(slog.String("component", "consumer")),
		local:     newPoolLocks(),
	}
}

// Run subscribes and processes messages until the context is cancelled. It
// never returns a message-level error: malformed or failing messages are
// logged and dropped so the loop cannot stall.
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.bus.Subscribe(ctx, PlanTopicPattern())
	if err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "consumer subscribed",
		slog.String("pattern", PlanTopicPattern()),
		slog.Int("workers", c.cfg.Workers),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)

	for {
		select {
		case <-ctx.Done():
			_ = g.Wait()
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				_ = g.Wait()
				return nil
			}
			// Workers race for the per-pool mutex, so two queued
			// messages for one pool are serialized but not
			// guaranteed to run in bus-delivery order.
			g.Go(func() error {
				c.handleMessage(ctx, msg)
				return nil
			})
		}
	}
}

// handleMessage parses, locks, and processes one inbound message.
func (c *Consumer) handleMessage(ctx context.Context, msg domain.BusMessage) {
	topic, err := ParseTopic(msg.Channel)
	if err != nil {
		c.logger.WarnContext(ctx, "dropping message with malformed topic",
			slog.String("topic", msg.Channel),
			slog.String("error", err.Error()),
		)
		return
	}
	if topic.Kind != PlanTopicKind {
		c.logger.DebugContext(ctx, "ignoring non-plan message", slog.String("topic", msg.Channel))
		return
	}

	plan, err := c.decodePlan(topic.PoolID, msg.Payload)
	if err != nil {
		c.logger.WarnContext(ctx, "dropping malformed plan payload",
			slog.String("pool_id", topic.PoolID),
			slog.String("error", err.Error()),
		)
		return
	}

	// Per-pool serialization. The local mutex orders goroutines in this
	// process; the distributed lock orders processes.
	lock := c.local.get(plan.PoolID)
	lock.Lock()
	defer lock.Unlock()

	unlock, err := c.acquirePoolLock(ctx, plan.PoolID)
	if err != nil {
		c.logger.WarnContext(ctx, "dropping plan, pool lock unavailable",
			slog.String("pool_id", plan.PoolID),
			slog.String("error", err.Error()),
		)
		return
	}
	defer unlock()

	c.process(ctx, plan)
}

// vaultAdmits checks the vault's lifecycle state before a plan is validated.
// A paused or closed vault yields a rejection; a pool with no lifecycle row
// yet is admitted. The returned error means the state could not be read at
// all and the plan must be dropped.
func (c *Consumer) vaultAdmits(ctx context.Context, poolID string) (*domain.ValidationError, error) {
	state, err := c.vaults.Get(ctx, poolID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	switch state.Status {
	case domain.VaultPaused, domain.VaultClosed:
		return &domain.ValidationError{
			Code:    domain.CodeVaultUnavailable,
			Message: "vault is " + string(state.Status),
		}, nil
	}
	return nil, nil
}

// acquirePoolLock takes the distributed pool lock, waiting out a holder in
// another process until the context ends.
func (c *Consumer) acquirePoolLock(ctx context.Context, poolID string) (func(), error) {
	for {
		unlock, err := c.locks.Acquire(ctx, "realloc:pool:"+poolID, c.cfg.LockTTL)
		if err == nil {
			return unlock, nil
		}
		if !errors.Is(err, domain.ErrLockHeld) {
			return nil, err
		}

		timer := time.NewTimer(c.cfg.LockRetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// process runs validate -> execute -> report for one plan. Any failure ends
// in a logged report, never a propagated error.
func (c *Consumer) process(ctx context.Context, plan domain.ReallocationPlan) {
	log := c.logger.With(slog.String("pool_id", plan.PoolID))

	rejection, err := c.vaultAdmits(ctx, plan.PoolID)
	if err != nil {
		log.WarnContext(ctx, "dropping plan, vault state unavailable",
			slog.String("error", err.Error()),
		)
		return
	}
	if rejection != nil {
		log.WarnContext(ctx, "plan rejected, vault not accepting reallocations",
			slog.String("code", string(rejection.Code)),
		)
		c.reporter.PublishRejection(ctx, plan.PoolID, domain.ValidationResult{
			IsValid:   false,
			Errors:    []domain.ValidationError{*rejection},
			Timestamp: time.Now().UTC(),
		})
		return
	}

	result := c.validator.Validate(ctx, plan)
	for _, w := range result.Warnings {
		log.WarnContext(ctx, "validation warning",
			slog.String("code", string(w.Code)),
			slog.String("message", w.Message),
		)
	}
	if !result.IsValid {
		log.WarnContext(ctx, "plan rejected", slog.Int("errors", len(result.Errors)))
		c.reporter.PublishRejection(ctx, plan.PoolID, result)
		return
	}

	report, err := c.executor.Execute(ctx, plan)
	if err != nil {
		// Partial capital movement is reported distinctly (partial vs
		// error status) so operators know reconciliation is needed.
		log.ErrorContext(ctx, "plan execution failed",
			slog.String("status", report.StatusTopic()),
			slog.String("error", err.Error()),
		)
	}
	c.reporter.PublishExecution(ctx, report)
}

// decodePlan parses and minimally validates the wire payload.
func (c *Consumer) decodePlan(poolID string, payload []byte) (domain.ReallocationPlan, error) {
	var p planPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return domain.ReallocationPlan{}, errors.Join(domain.ErrInvalidPlan, err)
	}
	if len(p.Actions) == 0 {
		return domain.ReallocationPlan{}, errors.Join(domain.ErrInvalidPlan, errors.New("plan has no actions"))
	}
	for _, a := range p.Actions {
		if a.Amount <= 0 {
			return domain.ReallocationPlan{}, errors.Join(domain.ErrInvalidPlan,
				errors.New("action amount must be positive"))
		}
		if a.Kind != domain.ActionDeposit && a.Kind != domain.ActionWithdraw {
			return domain.ReallocationPlan{}, errors.Join(domain.ErrInvalidPlan,
				errors.New("unknown action kind"))
		}
		if a.VenueID == "" {
			return domain.ReallocationPlan{}, errors.Join(domain.ErrInvalidPlan,
				errors.New("action missing venue id"))
		}
	}

	ts := p.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return domain.ReallocationPlan{
		PoolID:             poolID,
		Actions:            p.Actions,
		ExpectedAllocation: p.ExpectedAllocation,
		Timestamp:          ts,
		Metadata:           p.Metadata,
	}, nil
}
