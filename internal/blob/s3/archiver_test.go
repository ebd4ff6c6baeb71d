package s3blob

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

type fakeStreamBus struct {
	entries []domain.StreamMessage
	readErr error
	// lastRequested records the lastID of the most recent StreamRead.
	lastRequested string
}

func (b *fakeStreamBus) Publish(ctx context.Context, channel string, payload []byte) error {
	return nil
}

func (b *fakeStreamBus) Subscribe(ctx context.Context, channel string) (<-chan domain.BusMessage, error) {
	return nil, errors.New("not implemented")
}

func (b *fakeStreamBus) StreamAppend(ctx context.Context, stream string, payload []byte) error {
	return nil
}

func (b *fakeStreamBus) StreamRead(ctx context.Context, stream string, lastID string, count int) ([]domain.StreamMessage, error) {
	b.lastRequested = lastID
	if b.readErr != nil {
		return nil, b.readErr
	}
	out := b.entries
	b.entries = nil // drained
	return out, nil
}

type memBlobWriter struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemBlobWriter() *memBlobWriter {
	return &memBlobWriter{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (w *memBlobWriter) Put(ctx context.Context, path string, data []byte, contentType string) error {
	if w.err != nil {
		return w.err
	}
	w.objects[path] = data
	w.types[path] = contentType
	return nil
}

type memAudit struct {
	events []string
	detail []map[string]any
	err    error
}

func (a *memAudit) Log(ctx context.Context, event string, detail map[string]any) error {
	if a.err != nil {
		return a.err
	}
	a.events = append(a.events, event)
	a.detail = append(a.detail, detail)
	return nil
}

func TestArchiveReports(t *testing.T) {
	bus := &fakeStreamBus{entries: []domain.StreamMessage{
		{ID: "1-0", Payload: []byte(`{"execution_id":"exec-1"}`)},
		{ID: "2-0", Payload: []byte(`{"execution_id":"exec-2"}`)},
	}}
	writer := newMemBlobWriter()
	audit := &memAudit{}
	arch := NewArchiver(writer, bus, audit, "realloc:reports")

	n, err := arch.ArchiveReports(context.Background())
	if err != nil {
		t.Fatalf("ArchiveReports: %v", err)
	}
	if n != 2 {
		t.Fatalf("archived = %d, want 2", n)
	}
	if bus.lastRequested != "0" {
		t.Fatalf("first pass started from %q, want 0", bus.lastRequested)
	}

	if len(writer.objects) != 1 {
		t.Fatalf("objects = %d, want 1", len(writer.objects))
	}
	var path string
	for p := range writer.objects {
		path = p
	}
	if !strings.HasPrefix(path, "archive/reports/") || !strings.HasSuffix(path, ".jsonl") {
		t.Fatalf("path = %q", path)
	}
	if writer.types[path] != "application/x-ndjson" {
		t.Fatalf("content type = %q", writer.types[path])
	}

	// One JSONL line per entry, each carrying its stream id.
	scanner := bufio.NewScanner(bytes.NewReader(writer.objects[path]))
	var ids []string
	for scanner.Scan() {
		var entry struct {
			ID     string          `json:"id"`
			Report json.RawMessage `json:"report"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("line not valid JSON: %v", err)
		}
		ids = append(ids, entry.ID)
	}
	if len(ids) != 2 || ids[0] != "1-0" || ids[1] != "2-0" {
		t.Fatalf("ids = %v", ids)
	}

	if len(audit.events) != 1 || audit.events[0] != "archive.reports" {
		t.Fatalf("audit events = %v", audit.events)
	}

	// The next pass resumes after the last archived entry.
	if _, err := arch.ArchiveReports(context.Background()); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if bus.lastRequested != "2-0" {
		t.Fatalf("second pass started from %q, want 2-0", bus.lastRequested)
	}
}

func TestArchiveReportsEmptyStream(t *testing.T) {
	writer := newMemBlobWriter()
	arch := NewArchiver(writer, &fakeStreamBus{}, &memAudit{}, "realloc:reports")

	n, err := arch.ArchiveReports(context.Background())
	if err != nil {
		t.Fatalf("ArchiveReports: %v", err)
	}
	if n != 0 {
		t.Fatalf("archived = %d, want 0", n)
	}
	if len(writer.objects) != 0 {
		t.Fatal("empty pass uploaded an object")
	}
}

func TestArchiveReportsUploadFailureKeepsCursor(t *testing.T) {
	bus := &fakeStreamBus{entries: []domain.StreamMessage{
		{ID: "1-0", Payload: []byte(`{}`)},
	}}
	writer := newMemBlobWriter()
	writer.err = errors.New("bucket gone")
	arch := NewArchiver(writer, bus, &memAudit{}, "realloc:reports")

	if _, err := arch.ArchiveReports(context.Background()); err == nil {
		t.Fatal("expected upload error")
	}

	// The cursor must not advance past unarchived entries.
	writer.err = nil
	bus.entries = []domain.StreamMessage{{ID: "1-0", Payload: []byte(`{}`)}}
	if _, err := arch.ArchiveReports(context.Background()); err != nil {
		t.Fatalf("retry pass: %v", err)
	}
	if bus.lastRequested != "0" {
		t.Fatalf("retry started from %q, want 0", bus.lastRequested)
	}
}

func TestMarshalJSONLNonJSONPayload(t *testing.T) {
	out, err := marshalJSONL([]domain.StreamMessage{
		{ID: "1-0", Payload: []byte("not json at all")},
	})
	if err != nil {
		t.Fatalf("marshalJSONL: %v", err)
	}
	var entry struct {
		ID     string `json:"id"`
		Report string `json:"report"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(out), &entry); err != nil {
		t.Fatalf("line not valid JSON: %v", err)
	}
	if entry.Report != "not json at all" {
		t.Fatalf("report = %q", entry.Report)
	}
}
