package cache

import (
	"context"
	"errors"
	"time"
)

// LayeredCache implements a two-level cache (L1: memory, L2: any Store, usually Redis).
type LayeredCache struct {
	mem    *MemoryCache
	remote Store
}

// NewLayeredCache creates a layered cache. The memory layer should use the
// same TTL as remote.
func NewLayeredCache(mem *MemoryCache, remote Store) *LayeredCache {
	return &LayeredCache{mem: mem, remote: remote}
}

func (lc *LayeredCache) TTL() time.Duration { return lc.remote.TTL() }

func (lc *LayeredCache) Set(ctx context.Context, key string, value []byte) error {
	// Write-through: remote first, then memory
	if err := lc.remote.Set(ctx, key, value); err != nil {
		return err
	}
	return lc.mem.Set(ctx, key, value)
}

func (lc *LayeredCache) Get(ctx context.Context, key string) ([]byte, time.Time, error) {
	if value, fetchedAt, err := lc.mem.Get(ctx, key); err == nil {
		return value, fetchedAt, nil
	}

	value, fetchedAt, err := lc.remote.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, time.Time{}, ErrCacheMiss
		}
		return nil, time.Time{}, err
	}

	// keep the remote write time so L1 expires together with L2
	lc.mem.Put(key, value, fetchedAt)
	return value, fetchedAt, nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.mem.Delete(ctx, keys...)
	return lc.remote.Delete(ctx, keys...)
}

// Close closes both cache layers.
func (lc *LayeredCache) Close() error {
	_ = lc.mem.Close()
	return lc.remote.Close()
}
