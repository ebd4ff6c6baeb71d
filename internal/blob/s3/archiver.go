package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

// archiveBatchSize is how many stream entries one archive pass drains.
const archiveBatchSize = 1000

// Archiver drains the durable report stream into cold storage: entries are
// serialized to JSONL and uploaded month-partitioned, then the pass is
// recorded in the audit log. Stream trimming is left to the bus's own
// MAXLEN policy so an archive failure never loses reports.
type Archiver struct {
	writer domain.BlobWriter
	bus    domain.SignalBus
	audit  domain.AuditStore

	stream string
	lastID string
}

// NewArchiver creates an Archiver reading from the given stream. The first
// pass starts from the beginning of the stream.
func NewArchiver(writer domain.BlobWriter, bus domain.SignalBus, audit domain.AuditStore, stream string) *Archiver {
	return &Archiver{
		writer: writer,
		bus:    bus,
		audit:  audit,
		stream: stream,
		lastID: "0",
	}
}

// ArchiveReports reads the next batch of report entries from the stream,
// uploads them as one JSONL object, and returns the number archived. A pass
// with nothing new to archive returns 0 and uploads nothing.
func (a *Archiver) ArchiveReports(ctx context.Context) (int64, error) {
	msgs, err := a.bus.StreamRead(ctx, a.stream, a.lastID, archiveBatchSize)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive reports read: %w", err)
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(msgs)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive reports marshal: %w", err)
	}

	now := time.Now().UTC()
	path := archivePath("reports", now)
	if err := a.writer.Put(ctx, path, buf, "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive reports upload: %w", err)
	}

	a.lastID = msgs[len(msgs)-1].ID
	count := int64(len(msgs))

	if err := a.audit.Log(ctx, "archive.reports", map[string]any{
		"path":    path,
		"count":   count,
		"last_id": a.lastID,
	}); err != nil {
		return count, fmt.Errorf("s3blob: archive reports audit log: %w", err)
	}

	return count, nil
}

// archivePath builds the S3 key for an archive file, partitioned by
// year-month with a per-pass timestamp so repeated passes never overwrite:
//
//	archive/reports/2026-08/20260829T101500Z.jsonl
func archivePath(kind string, at time.Time) string {
	return fmt.Sprintf("archive/%s/%s/%s.jsonl", kind, at.Format("2006-01"), at.Format("20060102T150405Z"))
}

// archivedEntry is one JSONL line: the stream id plus the raw report.
type archivedEntry struct {
	ID     string          `json:"id"`
	Report json.RawMessage `json:"report"`
}

// marshalJSONL serialises stream entries as newline-delimited JSON.
func marshalJSONL(msgs []domain.StreamMessage) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, msg := range msgs {
		entry := archivedEntry{ID: msg.ID, Report: json.RawMessage(msg.Payload)}
		if !json.Valid(msg.Payload) {
			entry.Report, _ = json.Marshal(string(msg.Payload))
		}
		if err := enc.Encode(entry); err != nil {
			return nil, fmt.Errorf("jsonl encode entry %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
