package redis

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/polylive/internal/domain"
	"github.com/redis/go-redis/v9"
)

var _ domain.SignalBus = (*SignalBus)(nil)

// SignalBus carries snapshots between replicas over Redis Pub/Sub, so every
// replica's WebSocket hub pushes the snapshot of whichever replica polled.
// Each payload supersedes the one before it: a subscriber that falls behind
// receives the newest payload, never a backlog.
type SignalBus struct {
	rdb *redis.Client
}

// NewSignalBus creates a SignalBus backed by the given Client.
func NewSignalBus(c *Client) *SignalBus {
	return &SignalBus{rdb: c.Underlying()}
}

// Publish sends payload to every replica subscribed to channel.
func (sb *SignalBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := sb.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe confirms the subscription before returning, so nothing published
// afterwards is missed. The returned channel closes when ctx is cancelled.
func (sb *SignalBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	pubsub := sb.rdb.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", channel, err)
	}

	out := make(chan []byte, 1)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				offerLatest(out, []byte(msg.Payload))
			}
		}
	}()
	return out, nil
}

// offerLatest queues payload on out, evicting a queued payload nobody has
// read yet. out must have a single sender.
func offerLatest(out chan []byte, payload []byte) {
	for {
		select {
		case out <- payload:
			return
		default:
		}
		select {
		case <-out:
		default:
		}
	}
}
