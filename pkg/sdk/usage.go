package postgen

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/postgen/internal/domain/usage"
)

// UsagePeriod is the aggregation granularity for usage reports.
type UsagePeriod string

// UsagePeriod constants.
const (
	PeriodDay   UsagePeriod = "day"
	PeriodMonth UsagePeriod = "month"
)

// UsageReport contains generation statistics for a period and the caller's quota.
type UsageReport struct {
	Period        UsagePeriod
	PeriodStart   time.Time
	PeriodEnd     time.Time
	Generations   int64
	Tokens        int64
	ActiveClients int
	Quota         QuotaStatus
}

// QuotaStatus is a client's free-tier state.
type QuotaStatus struct {
	FreeLimit   int
	Remaining   int
	IsExhausted bool
	UpgradeURL  string
}

// Usage returns a usage report for the given period as seen by clientID.
// Observer always records success: the underlying use case is in-memory
// and does not produce errors.
func (c *Client) Usage(ctx context.Context, clientID string, period UsagePeriod) (UsageReport, error) {
	start := time.Now()

	p, err := domusage.ParsePeriod(string(period))
	if err != nil {
		c.obs.observe("usage", start, err)
		return UsageReport{}, err
	}

	report := c.usageSvc.GetReport(ctx, clientID, p)
	c.obs.observe("usage", start, nil)

	return UsageReport{
		Period:        UsagePeriod(report.Period),
		PeriodStart:   report.PeriodStart,
		PeriodEnd:     report.PeriodEnd,
		Generations:   report.Generations,
		Tokens:        report.Tokens,
		ActiveClients: report.ActiveClients,
		Quota: QuotaStatus{
			FreeLimit:   report.Quota.FreeLimit,
			Remaining:   report.Quota.Remaining,
			IsExhausted: report.Quota.Exhausted,
			UpgradeURL:  report.Quota.UpgradeURL,
		},
	}, nil
}
