package postgen

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature *float32
	timeout     time.Duration

	generator Generator

	freeLimit      int
	window         time.Duration
	bypassPassword string
	upgradeURL     string
	unlimited      bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
	now        func() time.Time
}

// WithAPIKey sets the API key for the OpenAI-compatible provider.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = key
	})
}

// WithBaseURL points the client at another OpenAI-compatible endpoint.
// Defaults to Groq.
func WithBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = url
	})
}

// WithModel sets the chat model. Default: llama-3.1-8b-instant.
func WithModel(model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.model = model
	})
}

// WithSampling sets max tokens and temperature. Defaults: 300 and 0.7.
func WithSampling(maxTokens int, temperature float32) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxTokens = maxTokens
		c.temperature = &temperature
	})
}

// WithTimeout bounds a single provider call. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithGenerator replaces the OpenAI-compatible provider. API key, base URL,
// model and sampling options are ignored when set.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithFreeLimit sets the number of free generations per client per window. Default: 3.
func WithFreeLimit(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.freeLimit = n
	})
}

// WithWindow sets the quota window. Default: 24h.
func WithWindow(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.window = d
	})
}

// WithBypassPassword sets the Pro password accepted once the free quota is gone.
// Empty (default) means exhausted clients are always denied.
func WithBypassPassword(pw string) Option {
	return optionFunc(func(c *clientConfig) {
		c.bypassPassword = pw
	})
}

// WithUpgradeURL sets the link returned with ErrQuotaExceeded.
func WithUpgradeURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.upgradeURL = url
	})
}

// WithUnlimited disables quota enforcement.
func WithUnlimited() Option {
	return optionFunc(func(c *clientConfig) {
		c.unlimited = true
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

func withClock(now func() time.Time) Option {
	return optionFunc(func(c *clientConfig) {
		c.now = now
	})
}
