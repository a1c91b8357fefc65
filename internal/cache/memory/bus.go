package memory

import (
	"context"
	"sync"

	"github.com/alanyoungcy/polylive/internal/domain"
)

var _ domain.SignalBus = (*Bus)(nil)

// Bus is an in-process domain.SignalBus for single-replica deployments.
// Delivery is best effort: a subscriber whose buffer is full misses the
// message rather than blocking the publisher.
type Bus struct {
	mu     sync.Mutex
	subs   map[string]map[chan []byte]struct{}
	buffer int
}

// NewBus creates a Bus whose subscriber channels hold up to buffer messages.
func NewBus(buffer int) *Bus {
	if buffer < 1 {
		buffer = 1
	}
	return &Bus{subs: make(map[string]map[chan []byte]struct{}), buffer: buffer}
}

// Publish delivers payload to every current subscriber of channel.
func (b *Bus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[channel] {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber until ctx is cancelled, at which point
// the returned channel is closed.
func (b *Bus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte, b.buffer)

	b.mu.Lock()
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[chan []byte]struct{})
	}
	b.subs[channel][ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs[channel], ch)
		if len(b.subs[channel]) == 0 {
			delete(b.subs, channel)
		}
		close(ch)
		b.mu.Unlock()
	}()

	return ch, nil
}
