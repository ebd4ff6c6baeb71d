package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

const positionKeyPrefix = "positions:"

// defaultPositionTTL caps how long a stale snapshot survives if the feed
// stops writing.
const defaultPositionTTL = 10 * time.Minute

// PositionCache stores the latest per-venue deployed amounts for each pool in
// a Redis hash keyed by pool id, with one field per venue id.
type PositionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPositionCache creates a PositionCache backed by the given Client.
func NewPositionCache(c *Client) *PositionCache {
	return &PositionCache{rdb: c.Underlying(), ttl: defaultPositionTTL}
}

// SetPosition records the deployed amount for one venue of a pool and
// refreshes the hash TTL.
func (p *PositionCache) SetPosition(ctx context.Context, pos domain.Position) error {
	key := positionKeyPrefix + pos.PoolID

	pipe := p.rdb.Pipeline()
	pipe.HSet(ctx, key, pos.VenueID, strconv.FormatFloat(pos.Amount, 'f', -1, 64))
	pipe.Expire(ctx, key, p.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set position %s/%s: %w", pos.PoolID, pos.VenueID, err)
	}
	return nil
}

// SetAll replaces the full position map for a pool in a single transaction.
func (p *PositionCache) SetAll(ctx context.Context, poolID string, positions map[string]float64) error {
	key := positionKeyPrefix + poolID

	fields := make(map[string]interface{}, len(positions))
	for venueID, amount := range positions {
		fields[venueID] = strconv.FormatFloat(amount, 'f', -1, 64)
	}

	pipe := p.rdb.TxPipeline()
	pipe.Del(ctx, key)
	if len(fields) > 0 {
		pipe.HSet(ctx, key, fields)
	}
	pipe.Expire(ctx, key, p.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set positions %s: %w", poolID, err)
	}
	return nil
}

// Snapshot returns the venue-to-amount map for a pool. A missing key returns
// domain.ErrNotFound so callers can distinguish "no feed data yet" from an
// empty pool.
func (p *PositionCache) Snapshot(ctx context.Context, poolID string) (map[string]float64, error) {
	key := positionKeyPrefix + poolID

	fields, err := p.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: snapshot positions %s: %w", poolID, err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}

	positions := make(map[string]float64, len(fields))
	for venueID, raw := range fields {
		amount, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("redis: snapshot positions %s: parse %s: %w", poolID, venueID, err)
		}
		positions[venueID] = amount
	}
	return positions, nil
}

var _ domain.PositionCache = (*PositionCache)(nil)
var _ domain.PositionSource = (*PositionCache)(nil)
