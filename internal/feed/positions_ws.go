// Package feed keeps the position cache warm from the venue position
// WebSocket stream.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

const (
	handshakeTimeout = 15 * time.Second
	readTimeout      = 60 * time.Second
	writeTimeout     = 10 * time.Second
	reconnectDelay   = 2 * time.Second
)

// positionUpdate is one message on the position stream.
type positionUpdate struct {
	PoolID    string    `json:"pool_id"`
	VenueID   string    `json:"venue_id"`
	Amount    float64   `json:"amount"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PositionsFeed connects to the position WebSocket, subscribes to the given
// pool ids, and writes each update into the position cache. It reconnects on
// disconnect.
type PositionsFeed struct {
	wsURL     string
	poolIDs   []string
	cache     domain.PositionCache
	logger    *slog.Logger
	closeOnce sync.Once
	done      chan struct{}
}

// NewPositionsFeed creates a feed that subscribes to the given pool ids.
func NewPositionsFeed(wsURL string, poolIDs []string, cache domain.PositionCache, logger *slog.Logger) *PositionsFeed {
	return &PositionsFeed{
		wsURL:   wsURL,
		poolIDs: poolIDs,
		cache:   cache,
		logger:  logger.With(slog.String("component", "positions_feed")),
		done:    make(chan struct{}),
	}
}

// Run connects, subscribes, and pumps updates into the cache until ctx is
// cancelled. Reconnects with a fixed delay on disconnect.
func (f *PositionsFeed) Run(ctx context.Context) error {
	if len(f.poolIDs) == 0 {
		f.logger.Info("no pools to subscribe, exiting")
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		err := f.runConnection(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.Warn("positions ws disconnected, reconnecting", slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

func (f *PositionsFeed) runConnection(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("feed: dial %s: %w", f.wsURL, err)
	}
	defer conn.Close()

	sub := map[string]any{
		"type":     "subscribe",
		"channel":  "positions",
		"pool_ids": f.poolIDs,
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("feed: subscribe: %w", err)
	}
	f.logger.Info("positions ws subscribed", slog.Int("pools", len(f.poolIDs)))

	// Close the connection when ctx is cancelled so ReadMessage unblocks.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-f.done:
			conn.Close()
		case <-stop:
		}
	}()

	conn.SetPingHandler(func(appData string) error {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		return conn.WriteMessage(websocket.PongMessage, []byte(appData))
	})

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("feed: read: %w", err)
		}

		var update positionUpdate
		if err := json.Unmarshal(data, &update); err != nil {
			f.logger.Warn("dropping malformed position update", slog.String("error", err.Error()))
			continue
		}
		if update.PoolID == "" || update.VenueID == "" {
			continue
		}

		pos := domain.Position{
			PoolID:    update.PoolID,
			VenueID:   update.VenueID,
			Amount:    update.Amount,
			UpdatedAt: update.UpdatedAt,
		}
		if err := f.cache.SetPosition(ctx, pos); err != nil {
			f.logger.Error("position cache write failed",
				slog.String("pool_id", pos.PoolID),
				slog.String("venue_id", pos.VenueID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Close stops the feed.
func (f *PositionsFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}
