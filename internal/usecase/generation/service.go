package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/postgen/internal/domain"
	domquota "github.com/kailas-cloud/postgen/internal/domain/quota"
)

// DefaultTimeout bounds a single call to the generation provider.
const DefaultTimeout = 30 * time.Second

// Request is one post submission.
type Request struct {
	ClientID string
	Idea     string
	Tone     string
	Password string
}

// Result carries the generated post (nil on failure) and the quota verdict for the request.
// Verdict.Remaining is always the count to display, also on errors.
type Result struct {
	Post    *domain.Post
	Verdict domquota.Verdict
}

// Service gates and performs post generation.
type Service struct {
	gate       QuotaGate
	generator  domain.Generator
	usage      UsageRecorder
	logger     *zap.Logger
	timeout    time.Duration
	upgradeURL string
	now        func() time.Time
}

// New creates a generation service. usage can be nil.
func New(gate QuotaGate, generator domain.Generator, usage UsageRecorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		gate:      gate,
		generator: generator,
		usage:     usage,
		logger:    logger,
		timeout:   DefaultTimeout,
		now:       time.Now,
	}
}

// WithTimeout overrides the provider call timeout.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// WithUpgradeURL sets the link returned with quota denials.
func (s *Service) WithUpgradeURL(url string) *Service {
	s.upgradeURL = url
	return s
}

// WithClock overrides the time source (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// FreeLimit returns the number of free generations per window.
func (s *Service) FreeLimit() int { return s.gate.FreeLimit() }

// Unlimited reports whether quota enforcement is off.
func (s *Service) Unlimited() bool { return s.gate.Unlimited() }

// UpgradeURL returns the configured upgrade link.
func (s *Service) UpgradeURL() string { return s.upgradeURL }

// Remaining returns the free generations left for the client, touching its ledger entry.
func (s *Service) Remaining(_ context.Context, clientID string) int {
	return s.gate.Remaining(clientID, s.now())
}

// Generate validates the request, consults the quota gate and calls the provider.
// Validation failures do not consume quota. An allowed attempt consumes quota even if the provider fails.
func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	now := s.now()

	idea, err := domain.NormalizeIdea(req.Idea)
	if err != nil {
		return s.rejected(req.ClientID, now), err
	}
	tone, err := domain.ParseTone(req.Tone)
	if err != nil {
		return s.rejected(req.ClientID, now), err
	}

	verdict := s.gate.Decide(req.ClientID, req.Password, now)
	res := Result{Verdict: verdict}
	if !verdict.Allowed {
		return res, &domain.QuotaExceededError{Remaining: verdict.Remaining, UpgradeURL: s.upgradeURL}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	gen, err := s.generator.Generate(callCtx, idea, tone)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrGenerationTimeout) {
			err = &domain.UpstreamError{Message: err.Error(), Cause: domain.ErrGenerationTimeout}
		}
		s.logger.Warn("Post generation failed",
			zap.String("client_id", req.ClientID),
			zap.String("tone", string(tone)),
			zap.String("reason", string(verdict.Reason)),
			zap.Bool("retryable", domain.IsRetryable(err)),
			zap.Error(err),
		)
		return res, fmt.Errorf("generate post: %w", err)
	}

	if s.usage != nil {
		s.usage.Record(int64(gen.TotalTokens))
	}

	post := &domain.Post{
		ID:        uuid.NewString(),
		Idea:      idea,
		Tone:      tone,
		Text:      gen.Text,
		Model:     gen.Model,
		CreatedAt: now,
	}
	res.Post = post

	s.logger.Info("Post generated",
		zap.String("post_id", post.ID),
		zap.String("client_id", req.ClientID),
		zap.String("tone", string(tone)),
		zap.String("reason", string(verdict.Reason)),
		zap.Int("remaining", verdict.Remaining),
		zap.Int("tokens", gen.TotalTokens),
	)
	return res, nil
}

func (s *Service) rejected(clientID string, now time.Time) Result {
	return Result{Verdict: domquota.Verdict{
		Remaining: s.gate.Remaining(clientID, now),
		Reason:    domquota.ReasonInvalidInput,
	}}
}
