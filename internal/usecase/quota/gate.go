package quota

import (
	"time"

	"go.uber.org/zap"

	domquota "github.com/kailas-cloud/postgen/internal/domain/quota"
	"github.com/kailas-cloud/postgen/internal/metrics"
)

// GateConfig holds the free-tier policy.
type GateConfig struct {
	FreeLimit      int
	BypassPassword string
	// Disabled turns the gate into an always-allow pass-through.
	Disabled bool
}

// Gate decides whether a request may consume a generation.
type Gate struct {
	ledger    *Ledger
	freeLimit int
	bypass    string
	disabled  bool
	logger    *zap.Logger
}

// NewGate creates a gate over the given ledger.
func NewGate(ledger *Ledger, cfg GateConfig, logger *zap.Logger) *Gate {
	limit := cfg.FreeLimit
	if limit <= 0 {
		limit = domquota.DefaultFreeLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		ledger:    ledger,
		freeLimit: limit,
		bypass:    cfg.BypassPassword,
		disabled:  cfg.Disabled,
		logger:    logger,
	}
}

// FreeLimit returns the number of free generations per window.
func (g *Gate) FreeLimit() int { return g.freeLimit }

// Unlimited reports whether quota enforcement is off.
func (g *Gate) Unlimited() bool { return g.disabled }

// Remaining touches the client's record and returns its free generations left.
func (g *Gate) Remaining(clientID string, now time.Time) int {
	if g.disabled {
		return g.freeLimit
	}
	rec := g.ledger.Touch(clientID, now)
	return domquota.Remaining(rec.Count, g.freeLimit)
}

// Decide evaluates the request against the client's record and, when a free slot is used,
// increments it. The whole sequence runs under the client's lock.
func (g *Gate) Decide(clientID, password string, now time.Time) domquota.Verdict {
	if g.disabled {
		v := domquota.Verdict{Allowed: true, Remaining: g.freeLimit, Reason: domquota.ReasonUnlimited}
		metrics.QuotaDecisionsTotal.WithLabelValues(string(v.Reason)).Inc()
		return v
	}

	var v domquota.Verdict
	g.ledger.Update(clientID, now, func(rec *domquota.Record) {
		v.Remaining = domquota.Remaining(rec.Count, g.freeLimit)

		switch {
		case rec.Count < g.freeLimit:
			v.Allowed = true
			v.Reason = domquota.ReasonFree
			rec.Increment()
		case g.passwordMatches(password):
			v.Allowed = true
			v.Reason = domquota.ReasonBypass
		default:
			v.Reason = domquota.ReasonUpgradeRequired
		}
	})

	metrics.QuotaDecisionsTotal.WithLabelValues(string(v.Reason)).Inc()
	g.logger.Debug("Quota decision",
		zap.String("client_id", clientID),
		zap.Bool("allowed", v.Allowed),
		zap.Int("remaining", v.Remaining),
		zap.String("reason", string(v.Reason)),
	)
	return v
}

// passwordMatches is a plain equality check. An unset password never matches.
func (g *Gate) passwordMatches(password string) bool {
	return g.bypass != "" && password == g.bypass
}
