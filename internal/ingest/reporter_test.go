package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

type fakeBus struct {
	published  map[string][][]byte
	appended   map[string][][]byte
	publishErr error
	appendErr  error
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		published: make(map[string][][]byte),
		appended:  make(map[string][][]byte),
	}
}

func (b *fakeBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if b.publishErr != nil {
		return b.publishErr
	}
	b.published[channel] = append(b.published[channel], payload)
	return nil
}

func (b *fakeBus) Subscribe(ctx context.Context, channel string) (<-chan domain.BusMessage, error) {
	return nil, errors.New("not implemented")
}

func (b *fakeBus) StreamAppend(ctx context.Context, stream string, payload []byte) error {
	if b.appendErr != nil {
		return b.appendErr
	}
	b.appended[stream] = append(b.appended[stream], payload)
	return nil
}

func (b *fakeBus) StreamRead(ctx context.Context, stream string, lastID string, count int) ([]domain.StreamMessage, error) {
	return nil, nil
}

type fakeAudit struct {
	events []string
	detail []map[string]any
}

func (a *fakeAudit) Log(ctx context.Context, event string, detail map[string]any) error {
	a.events = append(a.events, event)
	a.detail = append(a.detail, detail)
	return nil
}

type fakeBlobs struct {
	paths []string
	err   error
}

func (b *fakeBlobs) Put(ctx context.Context, path string, data []byte, contentType string) error {
	if b.err != nil {
		return b.err
	}
	b.paths = append(b.paths, path)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishExecution(t *testing.T) {
	bus := newFakeBus()
	audit := &fakeAudit{}
	blobs := &fakeBlobs{}
	reporter := NewReporter(bus, audit, blobs, discardLogger())

	report := domain.ExecutionReport{
		ExecutionID: "exec-1",
		PoolID:      "pool-1",
		Success:     true,
		Results: []domain.ActionResult{
			{Status: domain.ActionConfirmed},
		},
	}
	reporter.PublishExecution(context.Background(), report)

	if n := len(bus.appended[ReportStream]); n != 1 {
		t.Fatalf("stream appends = %d, want 1", n)
	}
	topic := "reallocation.pool-1.success"
	if n := len(bus.published[topic]); n != 1 {
		t.Fatalf("publishes on %s = %d, want 1", topic, n)
	}

	var decoded domain.ExecutionReport
	if err := json.Unmarshal(bus.published[topic][0], &decoded); err != nil {
		t.Fatalf("published payload not a report: %v", err)
	}
	if decoded.ExecutionID != "exec-1" {
		t.Fatalf("decoded execution id = %q", decoded.ExecutionID)
	}

	if len(blobs.paths) != 1 || blobs.paths[0] != "reports/pool-1/exec-1.json" {
		t.Fatalf("blob paths = %v", blobs.paths)
	}
	if len(audit.events) != 1 || audit.events[0] != "plan_executed" {
		t.Fatalf("audit events = %v", audit.events)
	}
}

func TestPublishExecutionPartialTopic(t *testing.T) {
	bus := newFakeBus()
	reporter := NewReporter(bus, nil, nil, discardLogger())

	report := domain.ExecutionReport{
		ExecutionID: "exec-2",
		PoolID:      "pool-1",
		Success:     false,
		Results: []domain.ActionResult{
			{Status: domain.ActionConfirmed},
			{Status: domain.ActionFailed},
		},
	}
	reporter.PublishExecution(context.Background(), report)

	if n := len(bus.published["reallocation.pool-1.partial"]); n != 1 {
		t.Fatalf("partial publishes = %d, want 1", n)
	}
}

func TestPublishExecutionSurvivesSinkFailures(t *testing.T) {
	bus := newFakeBus()
	bus.appendErr = errors.New("stream down")
	blobs := &fakeBlobs{err: errors.New("bucket gone")}
	reporter := NewReporter(bus, nil, blobs, discardLogger())

	// Must not panic and must still publish the status topic.
	report := domain.ExecutionReport{ExecutionID: "exec-3", PoolID: "pool-1", Success: true}
	reporter.PublishExecution(context.Background(), report)

	if n := len(bus.published["reallocation.pool-1.success"]); n != 1 {
		t.Fatalf("publishes = %d, want 1 despite sink failures", n)
	}
}

func TestPublishRejection(t *testing.T) {
	bus := newFakeBus()
	audit := &fakeAudit{}
	reporter := NewReporter(bus, audit, nil, discardLogger())

	result := domain.ValidationResult{
		IsValid: false,
		Errors: []domain.ValidationError{
			{Code: domain.CodeMaxAllocationViolated, Message: "too concentrated"},
		},
	}
	reporter.PublishRejection(context.Background(), "pool-1", result)

	topic := "reallocation.pool-1.error"
	if n := len(bus.published[topic]); n != 1 {
		t.Fatalf("publishes on %s = %d, want 1", topic, n)
	}
	if len(audit.events) != 1 || audit.events[0] != "plan_rejected" {
		t.Fatalf("audit events = %v", audit.events)
	}
	codes, ok := audit.detail[0]["codes"].([]string)
	if !ok || len(codes) != 1 || codes[0] != string(domain.CodeMaxAllocationViolated) {
		t.Fatalf("audit codes = %v", audit.detail[0]["codes"])
	}
}
