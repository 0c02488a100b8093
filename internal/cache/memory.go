package cache

import (
	"context"
	"sync"
	"time"

	"perdiem/internal/core"
)

// MemoryCache is a map-backed RolloverCache with TTL, used in tests and in
// deployments that run without Redis.
type MemoryCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]memoryItem
}

type memoryItem struct {
	cents     int64
	expiresAt time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:   ttl,
		items: make(map[string]memoryItem),
	}
}

func (c *MemoryCache) Get(ctx context.Context, userID string, day core.LocalDay) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key(userID, day)]
	if !ok {
		return 0, false, nil
	}
	if time.Now().After(item.expiresAt) {
		delete(c.items, key(userID, day))
		return 0, false, nil
	}
	return item.cents, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, userID string, day core.LocalDay, cents int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key(userID, day)] = memoryItem{
		cents:     cents,
		expiresAt: time.Now().Add(c.ttl),
	}
	return nil
}
