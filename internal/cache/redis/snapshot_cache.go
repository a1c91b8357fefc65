package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/alanyoungcy/polylive/internal/domain"
	"github.com/redis/go-redis/v9"
)

const defaultSnapshotTTL = 2 * time.Minute

// Key schema:
//
//	live:snapshot - hash with field "data" (JSON snapshot) and "ts" (unix millis)
const snapshotKey = "live:snapshot"

// SnapshotCache implements domain.SnapshotCache so every replica serves the
// snapshot produced by whichever replica holds the poll lock. Entries expire
// after ttl so a stalled poller does not serve stale games forever.
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotCache creates a SnapshotCache. A non-positive ttl uses two
// minutes.
func NewSnapshotCache(c *Client, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &SnapshotCache{rdb: c.Underlying(), ttl: ttl}
}

// SetSnapshot replaces the stored snapshot.
func (sc *SnapshotCache) SetSnapshot(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis: marshal snapshot: %w", err)
	}

	pipe := sc.rdb.TxPipeline()
	pipe.Del(ctx, snapshotKey)
	pipe.HSet(ctx, snapshotKey,
		"data", data,
		"ts", strconv.FormatInt(snap.Timestamp.UnixMilli(), 10),
	)
	pipe.Expire(ctx, snapshotKey, sc.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set snapshot: %w", err)
	}
	return nil
}

// GetSnapshot returns the stored snapshot, or domain.ErrNoSnapshot when none
// has been written or it has expired.
func (sc *SnapshotCache) GetSnapshot(ctx context.Context) (domain.Snapshot, error) {
	data, err := sc.rdb.HGet(ctx, snapshotKey, "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Snapshot{}, domain.ErrNoSnapshot
		}
		return domain.Snapshot{}, fmt.Errorf("redis: get snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("redis: unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
