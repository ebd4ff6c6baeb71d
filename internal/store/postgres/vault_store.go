package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

// VaultStore implements domain.VaultStore using PostgreSQL. The mutable row
// carries only lifecycle state; the current allocation is derived from the
// allocation history on read.
type VaultStore struct {
	pool  *pgxpool.Pool
	alloc *AllocationStore
}

// NewVaultStore creates a new VaultStore backed by the given connection pool.
func NewVaultStore(pool *pgxpool.Pool) *VaultStore {
	return &VaultStore{pool: pool, alloc: NewAllocationStore(pool)}
}

// Get returns the vault's lifecycle state together with its current
// allocation. It returns domain.ErrNotFound for an unknown pool.
func (s *VaultStore) Get(ctx context.Context, poolID string) (domain.VaultState, error) {
	const query = `SELECT pool_id, status, last_updated FROM vault_state WHERE pool_id = $1`

	var state domain.VaultState
	var status string
	err := s.pool.QueryRow(ctx, query, poolID).Scan(&state.PoolID, &status, &state.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.VaultState{}, domain.ErrNotFound
		}
		return domain.VaultState{}, fmt.Errorf("postgres: get vault %s: %w", poolID, err)
	}
	state.Status = domain.VaultStatus(status)

	entries, at, err := s.alloc.ReadCurrent(ctx, poolID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.VaultState{}, err
	}
	state.CurrentAllocation = entries
	if at.After(state.LastUpdated) {
		state.LastUpdated = at
	}
	return state, nil
}

// UpdateStatus upserts the vault's lifecycle status.
func (s *VaultStore) UpdateStatus(ctx context.Context, poolID string, status domain.VaultStatus) error {
	const query = `
		INSERT INTO vault_state (pool_id, status, last_updated)
		VALUES ($1, $2, NOW())
		ON CONFLICT (pool_id)
		DO UPDATE SET status = EXCLUDED.status, last_updated = NOW()`
	if _, err := s.pool.Exec(ctx, query, poolID, string(status)); err != nil {
		return fmt.Errorf("postgres: update vault status %s: %w", poolID, err)
	}
	return nil
}

var _ domain.VaultStore = (*VaultStore)(nil)
