package domain

import (
	"context"
	"time"
)

// AllocationStore persists the append-only allocation history and derives the
// current allocation as the most recent complete record set per pool.
type AllocationStore interface {
	// Append inserts one allocation-history row. It must never update in
	// place; readers always see a consistent append-only log.
	Append(ctx context.Context, rec AllocationRecord) error

	// ReadCurrent returns the latest complete allocation for the pool and
	// its timestamp. It returns ErrNotFound when the pool has no history.
	ReadCurrent(ctx context.Context, poolID string) ([]AllocationEntry, time.Time, error)
}

// VaultStore reads and updates vault lifecycle state.
type VaultStore interface {
	Get(ctx context.Context, poolID string) (VaultState, error)
	UpdateStatus(ctx context.Context, poolID string, status VaultStatus) error
}

// PoolMetaStore is the external venue-metadata lookup: pool to underlying
// asset and registered venues with their routing identifiers. Read-only.
type PoolMetaStore interface {
	Get(ctx context.Context, poolID string) (PoolMetadata, error)
}

// AuditStore persists an append-only audit log of admission decisions and
// execution outcomes.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
}

// PositionSource provides the per-venue deployed amounts for a pool. The
// snapshot is fetched once at validation time and may be stale by execution
// time; per-pool serialization at ingestion guards against that race.
type PositionSource interface {
	Snapshot(ctx context.Context, poolID string) (map[string]float64, error)
}

// PositionCache is the writable side of the position snapshot, kept warm by
// the venue position feed.
type PositionCache interface {
	PositionSource
	SetPosition(ctx context.Context, pos Position) error
}

// Submitter is the external transport API: submit an operation bundle, then
// poll confirmation. Confirm returns ErrNotConfirmed while the transaction is
// still pending and ErrConfirmFailed when it is terminally rejected.
type Submitter interface {
	Submit(ctx context.Context, ops OrderedOperations) (string, error)
	Confirm(ctx context.Context, transactionID string) error
}

// LockManager provides distributed locks keyed by string. Acquire returns an
// unlock function, or ErrLockHeld when another party holds the lock.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// StreamMessage is a single durable bus entry.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// BusMessage is one pub/sub delivery. Channel carries the concrete topic the
// message arrived on, which matters for pattern subscriptions where the topic
// encodes the pool id.
type BusMessage struct {
	Channel string
	Payload []byte
}

// SignalBus abstracts the message bus: pub/sub for inbound plan messages and
// outbound status notifications, streams for the durable report feed.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan BusMessage, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}

// BlobWriter stores report objects in cold storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
}
