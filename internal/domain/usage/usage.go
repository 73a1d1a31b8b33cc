package usage

import (
	"fmt"
	"time"
)

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name. Empty input means PeriodDay.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

// Bounds returns the UTC [start, end) interval of the period containing t.
func (p Period) Bounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	if p == PeriodMonth {
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// Quota is the caller's view of the free quota.
type Quota struct {
	FreeLimit  int
	Remaining  int
	Exhausted  bool
	UpgradeURL string
}

// Report is a generation usage report for a time period.
type Report struct {
	Period      Period
	PeriodStart time.Time
	PeriodEnd   time.Time
	// Generations and Tokens are process-wide totals, not per client.
	Generations int64
	Tokens      int64
	// ActiveClients is the number of client records currently held in the quota ledger.
	ActiveClients int
	Quota         Quota
}
