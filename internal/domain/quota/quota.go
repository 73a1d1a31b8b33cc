// Package quota holds the free-tier usage record and the gate verdict.
package quota

import "time"

// Defaults for the free tier.
const (
	DefaultFreeLimit = 3
	DefaultWindow    = 24 * time.Hour
)

// Record is the usage state of one client identifier.
type Record struct {
	Count   int
	ResetAt time.Time
}

// NewRecord starts a fresh window at now.
func NewRecord(now time.Time) Record {
	return Record{ResetAt: now}
}

// ApplyReset starts a new window when more than window has elapsed since ResetAt.
// Reports whether the record was reset.
func (r *Record) ApplyReset(now time.Time, window time.Duration) bool {
	if now.Sub(r.ResetAt) <= window {
		return false
	}
	r.Count = 0
	r.ResetAt = now
	return true
}

// Increment consumes one generation.
func (r *Record) Increment() {
	r.Count++
}

// Remaining returns the free generations left, clamped to [0, limit].
func Remaining(count, limit int) int {
	if count < 0 {
		count = 0
	}
	if count >= limit {
		return 0
	}
	return limit - count
}

// Reason explains a gate verdict.
type Reason string

// Verdict reasons.
const (
	// ReasonFree: allowed on a free slot, the record was incremented.
	ReasonFree Reason = "free"
	// ReasonBypass: allowed past the limit by the bypass password, no increment.
	ReasonBypass Reason = "bypass"
	// ReasonUnlimited: quota tracking disabled.
	ReasonUnlimited Reason = "unlimited"
	// ReasonUpgradeRequired: denied.
	ReasonUpgradeRequired Reason = "upgrade required"
	// ReasonInvalidInput: the submission was rejected before the gate ran.
	ReasonInvalidInput Reason = "invalid input"
)

// Verdict is the gate decision for one request.
type Verdict struct {
	Allowed bool
	// Remaining is computed before this request's own increment.
	Remaining int
	Reason    Reason
}
