package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/postgen/internal/domain/usage"
)

// Service handles usage reporting.
type Service struct {
	stats   StatsReader
	quota   QuotaReader
	clients ClientCounter
	now     clock
}

// New creates a Service. clients can be nil.
func New(stats StatsReader, quota QuotaReader, clients ClientCounter) *Service {
	return &Service{stats: stats, quota: quota, clients: clients, now: time.Now}
}

// WithClock overrides the time source (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetReport builds a usage report for the period, including the caller's quota.
func (s *Service) GetReport(ctx context.Context, clientID string, period domusage.Period) domusage.Report {
	start, end := period.Bounds(s.now())

	r := domusage.Report{
		Period:      period,
		PeriodStart: start,
		PeriodEnd:   end,
	}

	switch period {
	case domusage.PeriodMonth:
		r.Generations = s.stats.MonthlyGenerations()
		r.Tokens = s.stats.MonthlyTokens()
	default:
		r.Generations = s.stats.DailyGenerations()
		r.Tokens = s.stats.DailyTokens()
	}

	if s.clients != nil {
		r.ActiveClients = s.clients.Len()
	}

	remaining := s.quota.Remaining(ctx, clientID)
	r.Quota = domusage.Quota{
		FreeLimit:  s.quota.FreeLimit(),
		Remaining:  remaining,
		Exhausted:  remaining == 0,
		UpgradeURL: s.quota.UpgradeURL(),
	}
	return r
}
