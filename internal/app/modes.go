package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
	"github.com/ABSFinance/colloseum-monorepo/internal/executor"
	"github.com/ABSFinance/colloseum-monorepo/internal/feed"
	"github.com/ABSFinance/colloseum-monorepo/internal/ingest"
	"github.com/ABSFinance/colloseum-monorepo/internal/validator"
	"github.com/ABSFinance/colloseum-monorepo/internal/venue"
)

// RunMode starts the plan consumer, the position feed, and the report
// archiver, and blocks until the context is cancelled.
func (a *App) RunMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting run mode")

	g, ctx := errgroup.WithContext(ctx)

	v := a.buildValidator(deps)

	registry := venue.NewDefaultRegistry(deps.AddressBook, deps.Relayer)
	exec := executor.New(
		deps.PoolMetaStore,
		registry,
		deps.Relayer,
		deps.AllocationStore,
		deps.VaultStore,
		executor.Config{
			MaxConfirmAttempts: a.cfg.Executor.MaxConfirmAttempts,
			ConfirmBackoff:     a.cfg.Executor.ConfirmBackoff.Duration,
		},
		a.logger,
	)

	reporter := ingest.NewReporter(deps.SignalBus, deps.AuditStore, deps.BlobWriter, a.logger)

	consumer := ingest.NewConsumer(
		deps.SignalBus,
		deps.LockManager,
		deps.VaultStore,
		v,
		exec,
		reporter,
		ingest.Config{
			Workers:        a.cfg.Consumer.Workers,
			LockTTL:        a.cfg.Consumer.LockTTL.Duration,
			LockRetryDelay: a.cfg.Consumer.LockRetryDelay.Duration,
		},
		a.logger,
	)
	g.Go(func() error {
		return consumer.Run(ctx)
	})

	if a.cfg.Feed.Enabled {
		posFeed := feed.NewPositionsFeed(a.cfg.Feed.WsURL, a.cfg.Feed.PoolIDs, deps.PositionCache, a.logger)
		g.Go(func() error {
			defer posFeed.Close()
			return posFeed.Run(ctx)
		})
	}

	if deps.Archiver != nil {
		g.Go(func() error {
			return a.runArchiver(ctx, deps)
		})
	}

	return g.Wait()
}

// ValidateMode runs the validation pipeline against a plan file and prints
// the result as JSON. It never executes.
func (a *App) ValidateMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting validate mode", slog.String("plan_file", a.PlanFile))

	if a.PlanFile == "" {
		return fmt.Errorf("app: validate mode requires a plan file")
	}
	data, err := os.ReadFile(a.PlanFile)
	if err != nil {
		return fmt.Errorf("app: read plan file: %w", err)
	}

	var plan domain.ReallocationPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return fmt.Errorf("app: parse plan file: %w", err)
	}

	v := a.buildValidator(deps)
	result := v.Validate(ctx, plan)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("app: marshal result: %w", err)
	}
	fmt.Println(string(out))

	if !result.IsValid {
		return fmt.Errorf("app: plan %s failed validation with %d error(s)", plan.PoolID, len(result.Errors))
	}
	return nil
}

// buildValidator assembles the validation pipeline from configuration.
func (a *App) buildValidator(deps *Dependencies) *validator.Validator {
	constraints := domain.Constraints{
		MaxAssets:                a.cfg.Constraints.MaxAssets,
		MinAllocationPercentage:  a.cfg.Constraints.MinAllocationPercentage,
		MaxAllocationPercentage:  a.cfg.Constraints.MaxAllocationPercentage,
		MaxDailyChangePercentage: a.cfg.Constraints.MaxDailyChangePercentage,
		MaxTransactionValue:      a.cfg.Constraints.MaxTransactionValue,
	}
	duplicates := validator.NewDuplicateDetector(deps.AllocationStore, a.cfg.Constraints.DuplicateThresholdPct)
	return validator.New(constraints, deps.PositionCache, duplicates, a.logger)
}

// runArchiver drains the report stream to cold storage on a fixed interval.
func (a *App) runArchiver(ctx context.Context, deps *Dependencies) error {
	interval := a.cfg.Archive.Interval.Duration
	log := a.logger.With(slog.String("component", "archiver"))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := deps.Archiver.ArchiveReports(ctx)
			if err != nil {
				log.ErrorContext(ctx, "report archival failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				log.InfoContext(ctx, "reports archived", slog.Int64("count", n))
			}
		}
	}
}
