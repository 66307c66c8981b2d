package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryCacheFreshnessWindow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	mc := NewMemoryCache(WithMemoryTTL(5*time.Minute), WithMemoryCleanup(0), WithMemoryClock(clock.Now))
	defer mc.Close()

	ctx := context.Background()
	if err := mc.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}

	clock.Advance(5*time.Minute - time.Second)
	got, fetchedAt, err := mc.Get(ctx, "k")
	if err != nil {
		t.Fatalf("expected hit just before ttl, got %v", err)
	}
	if string(got) != "v" {
		t.Fatalf("unexpected value %q", got)
	}
	if !fetchedAt.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected fetchedAt %v", fetchedAt)
	}

	clock.Advance(2 * time.Second)
	if _, _, err := mc.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after ttl, got %v", err)
	}
	// logical expiry only; the entry stays until swept
	if mc.Len() != 1 {
		t.Fatalf("expected entry to remain stored, len=%d", mc.Len())
	}
}

func TestMemoryCacheExactlyTTLIsStale(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	mc := NewMemoryCache(WithMemoryTTL(time.Minute), WithMemoryCleanup(0), WithMemoryClock(clock.Now))
	defer mc.Close()

	_ = mc.Set(context.Background(), "k", []byte("v"))
	clock.Advance(time.Minute)
	if _, _, err := mc.Get(context.Background(), "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss at exactly ttl, got %v", err)
	}
}

func TestMemoryCacheSweep(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	mc := NewMemoryCache(WithMemoryTTL(time.Minute), WithMemoryCleanup(0), WithMemoryClock(clock.Now))
	defer mc.Close()

	ctx := context.Background()
	_ = mc.Set(ctx, "old", []byte("1"))
	clock.Advance(90 * time.Second)
	_ = mc.Set(ctx, "new", []byte("2"))

	// old is stale but not yet past the grace period
	if n := mc.Sweep(); n != 0 {
		t.Fatalf("expected nothing swept, got %d", n)
	}

	clock.Advance(time.Minute)
	if n := mc.Sweep(); n != 1 {
		t.Fatalf("expected one entry swept, got %d", n)
	}
	if mc.Len() != 1 {
		t.Fatalf("expected one entry left, got %d", mc.Len())
	}
}

func TestMemoryCacheCopiesValue(t *testing.T) {
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()

	buf := []byte("abc")
	_ = mc.Set(context.Background(), "k", buf)
	buf[0] = 'x'

	got, _, err := mc.Get(context.Background(), "k")
	if err != nil || string(got) != "abc" {
		t.Fatalf("expected stored copy, got %q err=%v", got, err)
	}
}

func TestMemoryCacheConcurrentAccess(t *testing.T) {
	mc := NewMemoryCache(WithMemoryCleanup(time.Millisecond))
	defer mc.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = mc.Set(ctx, "shared", []byte{byte(i)})
				if v, _, err := mc.Get(ctx, "shared"); err == nil && len(v) != 1 {
					t.Errorf("torn read: %v", v)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestJSONHelpers(t *testing.T) {
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()

	type payload struct {
		Name  string `json:"name"`
		Score int    `json:"score"`
	}

	ctx := context.Background()
	if err := SetJSON(ctx, mc, GenerateKey("profile", "soccer:Arsenal"), payload{Name: "Arsenal", Score: 75}); err != nil {
		t.Fatalf("set json: %v", err)
	}
	got, _, err := GetJSON[payload](ctx, mc, "profile:soccer:Arsenal")
	if err != nil {
		t.Fatalf("get json: %v", err)
	}
	if got.Name != "Arsenal" || got.Score != 75 {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestLayeredCacheBackfillKeepsFetchedAt(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	l1 := NewMemoryCache(WithMemoryTTL(time.Minute), WithMemoryCleanup(0), WithMemoryClock(clock.Now))
	l2 := NewMemoryCache(WithMemoryTTL(time.Minute), WithMemoryCleanup(0), WithMemoryClock(clock.Now))
	lc := NewLayeredCache(l1, l2)
	defer lc.Close()

	ctx := context.Background()
	_ = l2.Set(ctx, "k", []byte("remote"))
	clock.Advance(30 * time.Second)

	got, fetchedAt, err := lc.Get(ctx, "k")
	if err != nil || string(got) != "remote" {
		t.Fatalf("expected remote hit, got %q err=%v", got, err)
	}
	if !fetchedAt.Equal(time.Unix(1000, 0)) {
		t.Fatalf("expected original fetchedAt, got %v", fetchedAt)
	}
	if l1.Len() != 1 {
		t.Fatalf("expected L1 backfill")
	}

	clock.Advance(31 * time.Second)
	if _, _, err := lc.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected both layers stale, got %v", err)
	}
}

func TestLayeredCacheWriteThrough(t *testing.T) {
	l1 := NewMemoryCache(WithMemoryCleanup(0))
	l2 := NewMemoryCache(WithMemoryCleanup(0))
	lc := NewLayeredCache(l1, l2)
	defer lc.Close()

	ctx := context.Background()
	if err := lc.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, _, err := l2.Get(ctx, "k"); err != nil {
		t.Fatalf("expected remote write: %v", err)
	}
	if err := lc.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if l1.Len() != 0 || l2.Len() != 0 {
		t.Fatalf("expected both layers empty")
	}
}
