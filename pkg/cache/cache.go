package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Clock returns the current time. Tests inject a fake one.
type Clock func() time.Time

// Store is a keyed byte store with a fixed per-instance TTL.
// Get reports the time the value was written and never returns an entry
// whose age has reached the TTL.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, time.Time, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	TTL() time.Duration
	Close() error
}

// GetJSON loads key from s and decodes it into T.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, time.Time, error) {
	var out T
	raw, fetchedAt, err := s.Get(ctx, key)
	if err != nil {
		return out, time.Time{}, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, time.Time{}, err
	}
	return out, fetchedAt, nil
}

// SetJSON encodes value and writes it under key.
func SetJSON(ctx context.Context, s Store, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, data)
}

func fresh(now, fetchedAt time.Time, ttl time.Duration) bool {
	return now.Sub(fetchedAt) < ttl
}
