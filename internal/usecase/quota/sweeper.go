package quota

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/postgen/internal/metrics"
)

// Sweeper periodically evicts ledger records whose window started longer ago than retention.
// Evicting a record older than the window is indistinguishable from resetting it.
type Sweeper struct {
	ledger    *Ledger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewSweeper creates a sweeper. retention below the ledger window is raised to the window.
func NewSweeper(ledger *Ledger, interval, retention time.Duration, logger *zap.Logger) *Sweeper {
	if retention < ledger.Window() {
		retention = ledger.Window()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		ledger:    ledger,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

// SweepOnce evicts stale records and returns how many were removed.
func (s *Sweeper) SweepOnce() int {
	cutoff := s.now().Add(-s.retention)
	removed := s.ledger.Evict(cutoff)
	if removed > 0 {
		metrics.QuotaSweptTotal.Add(float64(removed))
		s.logger.Info("Swept stale quota records",
			zap.Int("removed", removed),
			zap.Int("remaining_clients", s.ledger.Len()),
		)
	}
	return removed
}

// Run sweeps every interval until ctx is done. A non-positive interval returns immediately.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce()
		}
	}
}
