package postgen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/postgen/internal/domain"
	domusage "github.com/kailas-cloud/postgen/internal/domain/usage"
	openaiGen "github.com/kailas-cloud/postgen/internal/transport/openai"
	generationuc "github.com/kailas-cloud/postgen/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/postgen/internal/usecase/health"
	"github.com/kailas-cloud/postgen/internal/usecase/quota"
	usageuc "github.com/kailas-cloud/postgen/internal/usecase/usage"
)

const defaultWindow = 24 * time.Hour

// Internal interfaces for substitution in tests.
type generationUseCase interface {
	Generate(ctx context.Context, req generationuc.Request) (generationuc.Result, error)
	Remaining(ctx context.Context, clientID string) int
	FreeLimit() int
	Unlimited() bool
}

type usageUseCase interface {
	GetReport(ctx context.Context, clientID string, period domusage.Period) domusage.Report
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the postgen SDK entry point. It is safe for concurrent use.
type Client struct {
	genSvc    generationUseCase
	usageSvc  usageUseCase
	healthSvc healthUseCase
	sweeper   *quota.Sweeper
	obs       *observer
}

// New creates a Client. Without WithGenerator an API key is required.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{window: defaultWindow}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.generator == nil && cfg.apiKey == "" {
		return nil, errors.New("postgen: api key required (use WithAPIKey or WithGenerator)")
	}
	if cfg.window <= 0 {
		return nil, fmt.Errorf("postgen: window must be positive, got %s", cfg.window)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	return wireClient(cfg, obs), nil
}

func wireClient(cfg *clientConfig, obs *observer) *Client {
	logger := zap.NewNop()

	ledger := quota.NewLedger(cfg.window)
	gate := quota.NewGate(ledger, quota.GateConfig{
		FreeLimit:      cfg.freeLimit,
		BypassPassword: cfg.bypassPassword,
		Disabled:       cfg.unlimited,
	}, logger)

	var gen interface {
		domain.Generator
		domain.HealthChecker
	}
	if cfg.generator != nil {
		gen = &generatorAdapter{inner: cfg.generator}
	} else {
		gen = openaiGen.NewGenerator(&openaiGen.Config{
			APIKey:      cfg.apiKey,
			BaseURL:     cfg.baseURL,
			Model:       cfg.model,
			MaxTokens:   cfg.maxTokens,
			Temperature: cfg.temperature,
			Logger:      logger,
		})
	}

	tracker := usageuc.NewTracker("", logger)
	genSvc := generationuc.New(gate, gen, tracker, logger).WithUpgradeURL(cfg.upgradeURL)
	usageSvc := usageuc.New(tracker, genSvc, ledger)
	if cfg.timeout > 0 {
		genSvc = genSvc.WithTimeout(cfg.timeout)
	}
	if cfg.now != nil {
		genSvc = genSvc.WithClock(cfg.now)
		tracker = tracker.WithClock(cfg.now)
		usageSvc = usageSvc.WithClock(cfg.now)
	}

	return &Client{
		genSvc:    genSvc,
		usageSvc:  usageSvc,
		healthSvc: healthuc.New(nil, gen),
		sweeper:   quota.NewSweeper(ledger, 0, 0, logger),
		obs:       obs,
	}
}

// Generate runs one attempt through the quota gate and the provider.
// The result is meaningful even when err is non-nil: Remaining and Decision are always set.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (res GenerateResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("generate", start, err) }()

	out, err := c.genSvc.Generate(ctx, generationuc.Request{
		ClientID: req.ClientID,
		Idea:     req.Idea,
		Tone:     string(req.Tone),
		Password: req.Password,
	})

	res = GenerateResult{
		Remaining: out.Verdict.Remaining,
		Decision:  Decision(out.Verdict.Reason),
	}
	if out.Post != nil {
		res.Post = &Post{
			ID:        out.Post.ID,
			Text:      out.Post.Text,
			Tone:      Tone(out.Post.Tone),
			Model:     out.Post.Model,
			CreatedAt: out.Post.CreatedAt,
		}
	}
	return res, err
}

// Remaining returns the free generations left for clientID. It never consumes quota.
func (c *Client) Remaining(ctx context.Context, clientID string) int {
	return c.genSvc.Remaining(ctx, clientID)
}

// FreeLimit returns the configured free generations per window.
func (c *Client) FreeLimit() int { return c.genSvc.FreeLimit() }

// Sweep evicts quota records older than the window and returns how many were removed.
// Long-lived embedders call it periodically to bound memory.
func (c *Client) Sweep() int {
	return c.sweeper.SweepOnce()
}
