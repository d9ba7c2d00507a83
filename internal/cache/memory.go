package cache

import (
	"context"
	"sync"
	"time"

	"TradeRobot/internal/model"
)

type memoryItem struct {
	bars     []model.Bar
	expireAt time.Time
}

// MemoryCache keeps history windows in process memory.
type MemoryCache struct {
	mu     sync.RWMutex
	items  map[string]memoryItem
	policy Policy
	now    func() time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache(policy Policy) *MemoryCache {
	return &MemoryCache{items: make(map[string]memoryItem), policy: policy, now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key Key) ([]model.Bar, bool, error) {
	c.mu.RLock()
	item, ok := c.items[key.String()]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if c.now().After(item.expireAt) {
		c.mu.Lock()
		delete(c.items, key.String())
		c.mu.Unlock()
		return nil, false, nil
	}
	out := make([]model.Bar, len(item.bars))
	copy(out, item.bars)
	return out, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key Key, bars []model.Bar) error {
	stored := make([]model.Bar, len(bars))
	copy(stored, bars)
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key.String()] = memoryItem{bars: stored, expireAt: now.Add(c.policy.TTLFor(key, now))}
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, key Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key.String())
	return nil
}

func (c *MemoryCache) Close() error { return nil }
