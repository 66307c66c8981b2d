package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryItem stores a cached value with the time it was written.
type MemoryItem struct {
	Value     []byte
	FetchedAt time.Time
}

// MemoryCache implements Store in process memory.
// Freshness is checked on every Get; the background sweep only reclaims
// entries that expired more than one TTL ago.
type MemoryCache struct {
	data   map[string]*MemoryItem
	mutex  sync.RWMutex
	ttl    time.Duration
	now    Clock
	stop   chan struct{}
	closed sync.Once
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		TTL:             DefaultTTL,
		CleanupInterval: time.Minute,
		Clock:           time.Now,
	}

	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	mc := &MemoryCache{
		data: make(map[string]*MemoryItem),
		ttl:  cfg.TTL,
		now:  cfg.Clock,
		stop: make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 {
		go mc.cleanupExpired(cfg.CleanupInterval)
	}
	return mc
}

func (mc *MemoryCache) TTL() time.Duration { return mc.ttl }

func (mc *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	mc.Put(key, value, mc.now())
	return nil
}

// Put stores value with an explicit write time.
func (mc *MemoryCache) Put(key string, value []byte, fetchedAt time.Time) {
	buf := make([]byte, len(value))
	copy(buf, value)

	mc.mutex.Lock()
	mc.data[key] = &MemoryItem{Value: buf, FetchedAt: fetchedAt}
	mc.mutex.Unlock()
}

func (mc *MemoryCache) Get(_ context.Context, key string) ([]byte, time.Time, error) {
	mc.mutex.RLock()
	item, exists := mc.data[key]
	mc.mutex.RUnlock()

	if !exists || !fresh(mc.now(), item.FetchedAt, mc.ttl) {
		return nil, time.Time{}, ErrCacheMiss
	}
	return item.Value, item.FetchedAt, nil
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	for _, key := range keys {
		delete(mc.data, key)
	}
	return nil
}

// Len returns the number of stored entries, fresh or not.
func (mc *MemoryCache) Len() int {
	mc.mutex.RLock()
	defer mc.mutex.RUnlock()
	return len(mc.data)
}

// Sweep drops entries older than twice the TTL and returns how many were removed.
func (mc *MemoryCache) Sweep() int {
	cutoff := mc.now().Add(-2 * mc.ttl)

	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	removed := 0
	for key, item := range mc.data {
		if item.FetchedAt.Before(cutoff) {
			delete(mc.data, key)
			removed++
		}
	}
	return removed
}

func (mc *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.Sweep()
		case <-mc.stop:
			return
		}
	}
}

// Close stops the cleanup goroutine.
func (mc *MemoryCache) Close() error {
	mc.closed.Do(func() { close(mc.stop) })
	return nil
}
