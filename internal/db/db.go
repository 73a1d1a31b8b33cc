package db

import (
	"context"
	"time"
)

// Store is the database facade used for usage statistics.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides counter-oriented key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// IncrByExpireNX increments key and sets ttl only if the key has no expiry yet, in one round trip.
	IncrByExpireNX(ctx context.Context, key string, val int64, ttl time.Duration) error
}
