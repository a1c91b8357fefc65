package memory

import (
	"context"
	"sync"

	"github.com/alanyoungcy/polylive/internal/domain"
)

var _ domain.SnapshotCache = (*SnapshotCache)(nil)

// SnapshotCache keeps the latest poll result in process memory.
type SnapshotCache struct {
	mu   sync.RWMutex
	snap *domain.Snapshot
}

// NewSnapshotCache returns an empty SnapshotCache.
func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{}
}

// SetSnapshot replaces the stored snapshot.
func (c *SnapshotCache) SetSnapshot(_ context.Context, snap domain.Snapshot) error {
	c.mu.Lock()
	c.snap = &snap
	c.mu.Unlock()
	return nil
}

// GetSnapshot returns the stored snapshot or domain.ErrNoSnapshot.
func (c *SnapshotCache) GetSnapshot(_ context.Context) (domain.Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return domain.Snapshot{}, domain.ErrNoSnapshot
	}
	return *c.snap, nil
}
