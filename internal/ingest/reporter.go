package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

// ReportStream is the durable stream completed execution reports land on.
const ReportStream = "realloc:reports"

// Reporter fans a finished plan's outcome out to its consumers: the durable
// report stream, the per-pool status topic, the audit log, and optionally
// cold storage. Failures here are logged but never fail the plan; capital
// movement already happened.
type Reporter struct {
	bus    domain.SignalBus
	audit  domain.AuditStore
	blobs  domain.BlobWriter
	logger *slog.Logger
}

// NewReporter creates a Reporter. audit and blobs may be nil.
func NewReporter(bus domain.SignalBus, audit domain.AuditStore, blobs domain.BlobWriter, logger *slog.Logger) *Reporter {
	return &Reporter{
		bus:    bus,
		audit:  audit,
		blobs:  blobs,
		logger: logger.With(slog.String("component", "reporter")),
	}
}

// PublishExecution distributes an execution report.
func (r *Reporter) PublishExecution(ctx context.Context, report domain.ExecutionReport) {
	payload, err := json.Marshal(report)
	if err != nil {
		r.logger.ErrorContext(ctx, "report marshal failed", slog.String("error", err.Error()))
		return
	}

	if err := r.bus.StreamAppend(ctx, ReportStream, payload); err != nil {
		r.logger.WarnContext(ctx, "report stream append failed", slog.String("error", err.Error()))
	}

	topic := ReportTopic(report.PoolID, report.StatusTopic())
	if err := r.bus.Publish(ctx, topic, payload); err != nil {
		r.logger.WarnContext(ctx, "report publish failed",
			slog.String("topic", topic),
			slog.String("error", err.Error()),
		)
	}

	if r.blobs != nil {
		key := fmt.Sprintf("reports/%s/%s.json", report.PoolID, report.ExecutionID)
		if err := r.blobs.Put(ctx, key, payload, "application/json"); err != nil {
			r.logger.WarnContext(ctx, "report archive failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	if r.audit != nil {
		detail := map[string]any{
			"execution_id": report.ExecutionID,
			"pool_id":      report.PoolID,
			"success":      report.Success,
			"confirmed":    report.ConfirmedCount(),
			"attempted":    len(report.Results),
		}
		if err := r.audit.Log(ctx, "plan_executed", detail); err != nil {
			r.logger.WarnContext(ctx, "audit log failed", slog.String("error", err.Error()))
		}
	}
}

// PublishRejection distributes a validation rejection on the pool's error
// topic so upstream producers learn their plan was refused.
func (r *Reporter) PublishRejection(ctx context.Context, poolID string, result domain.ValidationResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		r.logger.ErrorContext(ctx, "rejection marshal failed", slog.String("error", err.Error()))
		return
	}

	topic := ReportTopic(poolID, "error")
	if err := r.bus.Publish(ctx, topic, payload); err != nil {
		r.logger.WarnContext(ctx, "rejection publish failed",
			slog.String("topic", topic),
			slog.String("error", err.Error()),
		)
	}

	if r.audit != nil {
		codes := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			codes = append(codes, string(e.Code))
		}
		detail := map[string]any{
			"pool_id": poolID,
			"codes":   codes,
		}
		if err := r.audit.Log(ctx, "plan_rejected", detail); err != nil {
			r.logger.WarnContext(ctx, "audit log failed", slog.String("error", err.Error()))
		}
	}
}
