package usage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type counters struct {
	generations int64
	tokens      int64
}

// Tracker counts successful generations and tokens per UTC day and month.
// Reads are in-memory. Record updates memory first, then writes behind to the store.
type Tracker struct {
	mu             sync.Mutex
	daily          counters
	monthly        counters
	lastDayReset   time.Time
	lastMonthReset time.Time
	keyPrefix      string
	store          Store
	now            clock
	logger         *zap.Logger
}

// NewTracker creates an in-memory tracker. keyPrefix namespaces persisted keys.
func NewTracker(keyPrefix string, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracker{keyPrefix: keyPrefix, now: time.Now, logger: logger}
	now := t.now().UTC()
	t.lastDayReset = truncateToDay(now)
	t.lastMonthReset = truncateToMonth(now)
	return t
}

// WithClock overrides the time source (tests).
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
	utc := now().UTC()
	t.lastDayReset = truncateToDay(utc)
	t.lastMonthReset = truncateToMonth(utc)
	return t
}

// WithStore attaches a persistence store and loads current counters.
func (t *Tracker) WithStore(ctx context.Context, store Store) *Tracker {
	t.store = store
	t.loadFromStore(ctx)
	return t
}

func (t *Tracker) loadFromStore(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now().UTC()
	load := func(key string, dst *int64) {
		val, err := t.store.Get(ctx, key)
		if err != nil {
			t.logger.Warn("Failed to load usage counter from store", zap.String("key", key), zap.Error(err))
			return
		}
		*dst = val
	}
	load(t.key("generations", "daily", now), &t.daily.generations)
	load(t.key("tokens", "daily", now), &t.daily.tokens)
	load(t.key("generations", "monthly", now), &t.monthly.generations)
	load(t.key("tokens", "monthly", now), &t.monthly.tokens)

	t.logger.Info("Usage loaded from store",
		zap.Int64("daily_generations", t.daily.generations),
		zap.Int64("monthly_generations", t.monthly.generations),
		zap.Int64("monthly_tokens", t.monthly.tokens),
	)
}

func (t *Tracker) key(metric, scope string, at time.Time) string {
	layout := "2006-01-02"
	if scope == "monthly" {
		layout = "2006-01"
	}
	return fmt.Sprintf("%susage:%s:%s:%s", t.keyPrefix, metric, scope, at.Format(layout))
}

// Record registers one successful generation that consumed tokens.
func (t *Tracker) Record(tokens int64) {
	t.mu.Lock()
	t.resetIfNeeded()
	t.daily.generations++
	t.daily.tokens += tokens
	t.monthly.generations++
	t.monthly.tokens += tokens
	store := t.store
	now := t.now().UTC()
	t.mu.Unlock()

	if store == nil {
		return
	}

	// Background context so a cancelled request does not drop the write.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	writes := []struct {
		key string
		val int64
	}{
		{t.key("generations", "daily", now), 1},
		{t.key("generations", "monthly", now), 1},
		{t.key("tokens", "daily", now), tokens},
		{t.key("tokens", "monthly", now), tokens},
	}
	for _, w := range writes {
		if w.val == 0 {
			continue
		}
		if err := store.IncrBy(ctx, w.key, w.val); err != nil {
			t.logger.Warn("Failed to persist usage counter", zap.String("key", w.key), zap.Error(err))
		}
	}
}

// DailyGenerations returns generations recorded today.
func (t *Tracker) DailyGenerations() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNeeded()
	return t.daily.generations
}

// DailyTokens returns tokens recorded today.
func (t *Tracker) DailyTokens() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNeeded()
	return t.daily.tokens
}

// MonthlyGenerations returns generations recorded this month.
func (t *Tracker) MonthlyGenerations() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNeeded()
	return t.monthly.generations
}

// MonthlyTokens returns tokens recorded this month.
func (t *Tracker) MonthlyTokens() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNeeded()
	return t.monthly.tokens
}

// resetIfNeeded zeroes counters when the day or month rolls over.
func (t *Tracker) resetIfNeeded() {
	now := t.now().UTC()
	today := truncateToDay(now)
	thisMonth := truncateToMonth(now)

	if today.After(t.lastDayReset) {
		t.daily = counters{}
		t.lastDayReset = today
	}
	if thisMonth.After(t.lastMonthReset) {
		t.monthly = counters{}
		t.lastMonthReset = thisMonth
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
