package generation

import (
	"time"

	domquota "github.com/kailas-cloud/postgen/internal/domain/quota"
)

// QuotaGate decides whether a client may consume a generation.
type QuotaGate interface {
	Decide(clientID, password string, now time.Time) domquota.Verdict
	Remaining(clientID string, now time.Time) int
	FreeLimit() int
	Unlimited() bool
}

// UsageRecorder records successful generations for aggregate usage reporting.
type UsageRecorder interface {
	Record(tokens int64)
}
