package domain

import (
	"context"
	"time"
)

// SnapshotCache holds the most recent poll result for the serving layer.
type SnapshotCache interface {
	SetSnapshot(ctx context.Context, snap Snapshot) error
	GetSnapshot(ctx context.Context) (Snapshot, error) // ErrNoSnapshot when empty
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string, limit int, window time.Duration) error
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus provides pub/sub fan-out between replicas.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
