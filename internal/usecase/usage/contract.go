package usage

import (
	"context"
	"time"
)

// Store is the persistence interface for usage counters.
// Implementations must tolerate repeated IncrBy calls for the same key.
type Store interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// StatsReader provides read-only access to aggregate usage counters.
type StatsReader interface {
	DailyGenerations() int64
	DailyTokens() int64
	MonthlyGenerations() int64
	MonthlyTokens() int64
}

// QuotaReader exposes the caller's quota state.
type QuotaReader interface {
	Remaining(ctx context.Context, clientID string) int
	FreeLimit() int
	UpgradeURL() string
}

// ClientCounter reports how many clients the quota ledger currently holds.
type ClientCounter interface {
	Len() int
}

type clock func() time.Time
