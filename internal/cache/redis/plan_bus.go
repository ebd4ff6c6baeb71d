package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

// defaultStreamMaxLen bounds the durable report stream via XADD MAXLEN ~.
const defaultStreamMaxLen int64 = 10000

// PlanBus implements domain.SignalBus: Pub/Sub carries inbound plan messages
// and outbound status notifications, Streams carry the durable, ordered
// report feed.
type PlanBus struct {
	rdb          *redis.Client
	streamMaxLen int64
}

// NewPlanBus creates a PlanBus backed by the given Client.
func NewPlanBus(c *Client) *PlanBus {
	return &PlanBus{rdb: c.Underlying(), streamMaxLen: defaultStreamMaxLen}
}

// NewPlanBusWithMaxLen creates a PlanBus with a custom stream cap.
func NewPlanBusWithMaxLen(c *Client, maxLen int64) *PlanBus {
	if maxLen <= 0 {
		maxLen = defaultStreamMaxLen
	}
	return &PlanBus{rdb: c.Underlying(), streamMaxLen: maxLen}
}

// Publish sends a payload on a Pub/Sub channel.
func (b *PlanBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe opens a Pub/Sub subscription and returns a channel of messages
// carrying the concrete topic each payload arrived on; the consumer needs the
// topic because the pool id is encoded in it. Glob patterns select
// PSubscribe. The returned channel closes when ctx is cancelled.
func (b *PlanBus) Subscribe(ctx context.Context, channel string) (<-chan domain.BusMessage, error) {
	var pubsub *redis.PubSub
	if strings.ContainsAny(channel, "*?[") {
		pubsub = b.rdb.PSubscribe(ctx, channel)
	} else {
		pubsub = b.rdb.Subscribe(ctx, channel)
	}

	// Wait for the subscription confirmation before handing the channel out.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", channel, err)
	}

	out := make(chan domain.BusMessage, 128)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- domain.BusMessage{Channel: msg.Channel, Payload: []byte(msg.Payload)}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// StreamAppend appends a payload to a stream with approximate trimming.
func (b *PlanBus) StreamAppend(ctx context.Context, stream string, payload []byte) error {
	args := &redis.XAddArgs{
		Stream: stream,
		MaxLen: b.streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"payload": payload},
	}
	if err := b.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis: stream append %s: %w", stream, err)
	}
	return nil
}

// StreamRead reads up to count messages after lastID ("0" for the beginning,
// "$" for new messages only). No available messages is not an error.
func (b *PlanBus) StreamRead(ctx context.Context, stream string, lastID string, count int) ([]domain.StreamMessage, error) {
	args := &redis.XReadArgs{
		Streams: []string{stream, lastID},
		Count:   int64(count),
	}

	results, err := b.rdb.XRead(ctx, args).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis: stream read %s: %w", stream, err)
	}

	var messages []domain.StreamMessage
	for _, s := range results {
		for _, msg := range s.Messages {
			payload, ok := msg.Values["payload"]
			if !ok {
				continue
			}
			var data []byte
			switch v := payload.(type) {
			case string:
				data = []byte(v)
			case []byte:
				data = v
			default:
				continue
			}
			messages = append(messages, domain.StreamMessage{ID: msg.ID, Payload: data})
		}
	}
	return messages, nil
}

var _ domain.SignalBus = (*PlanBus)(nil)
