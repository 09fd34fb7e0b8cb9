package kv

import (
	"context"
	"time"
)

// Store is the key-value surface every repository is built on: durable string
// keys holding opaque JSON values, with optional expiry and prefix listing.
type Store interface {
	// Get returns (nil, nil) when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	PutTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// List returns the keys matching prefix. Order is unspecified; callers
	// that care must sort. limit <= 0 means no limit.
	List(ctx context.Context, prefix string, limit int64) ([]string, error)
}

var _ Store = (*RedisStore)(nil)
