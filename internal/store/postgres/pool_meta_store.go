package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

// PoolMetaStore implements domain.PoolMetaStore using PostgreSQL. Metadata is
// maintained out of band by the registration tooling; the pipeline only
// reads it.
type PoolMetaStore struct {
	pool *pgxpool.Pool
}

// NewPoolMetaStore creates a new PoolMetaStore backed by the given connection
// pool.
func NewPoolMetaStore(pool *pgxpool.Pool) *PoolMetaStore {
	return &PoolMetaStore{pool: pool}
}

// Get returns the pool's underlying asset and registered venues. It returns
// domain.ErrNotFound for an unknown pool.
func (s *PoolMetaStore) Get(ctx context.Context, poolID string) (domain.PoolMetadata, error) {
	const metaQuery = `SELECT pool_id, underlying_asset FROM pool_metadata WHERE pool_id = $1`

	var meta domain.PoolMetadata
	err := s.pool.QueryRow(ctx, metaQuery, poolID).Scan(&meta.PoolID, &meta.UnderlyingAsset)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PoolMetadata{}, domain.ErrNotFound
		}
		return domain.PoolMetadata{}, fmt.Errorf("postgres: get pool metadata %s: %w", poolID, err)
	}

	const venueQuery = `
		SELECT venue_id, kind, required_asset, market_address, reserve_id
		FROM venue_registrations
		WHERE pool_id = $1
		ORDER BY venue_id`

	rows, err := s.pool.Query(ctx, venueQuery, poolID)
	if err != nil {
		return domain.PoolMetadata{}, fmt.Errorf("postgres: get venue registrations %s: %w", poolID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var reg domain.VenueRegistration
		var kind string
		if err := rows.Scan(&reg.VenueID, &kind, &reg.RequiredAsset, &reg.MarketAddress, &reg.ReserveID); err != nil {
			return domain.PoolMetadata{}, fmt.Errorf("postgres: scan venue registration %s: %w", poolID, err)
		}
		reg.Kind = domain.VenueKind(kind)
		meta.Venues = append(meta.Venues, reg)
	}
	if err := rows.Err(); err != nil {
		return domain.PoolMetadata{}, fmt.Errorf("postgres: get venue registrations %s: %w", poolID, err)
	}

	return meta, nil
}

var _ domain.PoolMetaStore = (*PoolMetaStore)(nil)
