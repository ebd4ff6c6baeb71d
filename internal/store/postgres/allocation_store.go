package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

// AllocationStore implements domain.AllocationStore using PostgreSQL. History
// rows are insert-only; the current allocation is derived at read time from
// the most recent batch of rows per pool.
type AllocationStore struct {
	pool *pgxpool.Pool
}

// NewAllocationStore creates a new AllocationStore backed by the given
// connection pool.
func NewAllocationStore(pool *pgxpool.Pool) *AllocationStore {
	return &AllocationStore{pool: pool}
}

// Append inserts one allocation-history row.
func (s *AllocationStore) Append(ctx context.Context, rec domain.AllocationRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO allocation_history (pool_id, allocated_venue_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := s.pool.Exec(ctx, query, rec.PoolID, rec.VenueID, rec.Amount, string(rec.Status), createdAt)
	if err != nil {
		return fmt.Errorf("postgres: append allocation %s/%s: %w", rec.PoolID, rec.VenueID, err)
	}
	return nil
}

// ReadCurrent reconstructs the pool's current allocation by summing all
// history rows per venue. Deposits carry positive amounts and withdrawals
// negative ones, so the running sum per venue is the deployed amount; venues
// that net to zero are dropped. The returned time is the latest row's
// created_at. It returns domain.ErrNotFound when the pool has no history.
func (s *AllocationStore) ReadCurrent(ctx context.Context, poolID string) ([]domain.AllocationEntry, time.Time, error) {
	const query = `
		SELECT allocated_venue_id, SUM(amount), MAX(created_at)
		FROM allocation_history
		WHERE pool_id = $1
		GROUP BY allocated_venue_id
		ORDER BY allocated_venue_id`

	rows, err := s.pool.Query(ctx, query, poolID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("postgres: read allocation %s: %w", poolID, err)
	}
	defer rows.Close()

	var (
		entries []domain.AllocationEntry
		latest  time.Time
	)
	for rows.Next() {
		var (
			venueID string
			amount  float64
			at      time.Time
		)
		if err := rows.Scan(&venueID, &amount, &at); err != nil {
			return nil, time.Time{}, fmt.Errorf("postgres: scan allocation %s: %w", poolID, err)
		}
		if at.After(latest) {
			latest = at
		}
		if amount == 0 {
			continue
		}
		entries = append(entries, domain.AllocationEntry{
			PoolID:  poolID,
			VenueID: venueID,
			Amount:  amount,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("postgres: read allocation %s: %w", poolID, err)
	}

	if latest.IsZero() {
		return nil, time.Time{}, domain.ErrNotFound
	}
	return entries, latest, nil
}

var _ domain.AllocationStore = (*AllocationStore)(nil)
