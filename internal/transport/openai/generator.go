package openai

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/postgen/internal/domain"
	"github.com/kailas-cloud/postgen/internal/metrics"
)

// Defaults match Groq's OpenAI-compatible endpoint.
const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama-3.1-8b-instant"
	DefaultMaxTokens   = 300
	DefaultTemperature = 0.7
)

// Generator writes posts through an OpenAI-compatible chat completion API (Groq, OpenAI, ...).
type Generator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	provider    string
	logger      *zap.Logger
}

// Config holds the generation provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature *float32 // nil = DefaultTemperature
	Provider    string
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

var _ domain.Generator = (*Generator)(nil)

// NewGenerator creates an OpenAI-compatible generator.
func NewGenerator(cfg *Config) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = DefaultBaseURL
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	g := &Generator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: DefaultTemperature,
		provider:    cfg.Provider,
		logger:      cfg.Logger,
	}
	if g.model == "" {
		g.model = DefaultModel
	}
	if g.maxTokens <= 0 {
		g.maxTokens = DefaultMaxTokens
	}
	if cfg.Temperature != nil {
		g.temperature = *cfg.Temperature
	}
	if g.provider == "" {
		g.provider = "groq"
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	return g
}

// Generate implements domain.Generator. Returns the first choice trimmed of surrounding whitespace.
func (g *Generator) Generate(ctx context.Context, idea string, tone domain.Tone) (domain.Generation, error) {
	prompt, err := BuildPrompt(idea, tone)
	if err != nil {
		return domain.Generation{}, err
	}

	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	}
	// go-openai drops a zero temperature from the request body.
	if req.Temperature == 0 {
		req.Temperature = math.SmallestNonzeroFloat32
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		upstream := parseAPIError(err)
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(g.provider, g.model, errorType(upstream)).Inc()
		g.logger.Warn("Generation request failed",
			zap.String("provider", g.provider),
			zap.String("model", g.model),
			zap.Int("status", upstream.StatusCode),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.Generation{}, upstream
	}

	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(g.provider, g.model, "empty_response").Inc()
		return domain.Generation{}, &domain.UpstreamError{
			StatusCode: http.StatusOK,
			Message:    "no choices in response",
			Cause:      domain.ErrGenerationEmpty,
		}
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.provider, g.model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "completion").Add(float64(resp.Usage.CompletionTokens))
	}

	model := resp.Model
	if model == "" {
		model = g.model
	}

	return domain.Generation{
		Text:             strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:            model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return parseAPIError(err)
	}
	return nil
}

// parseAPIError turns a client error into an UpstreamError carrying the status and body text.
func parseAPIError(err error) *domain.UpstreamError {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := extractMessage(reqErr.Body)
		if msg == "" {
			msg = strings.TrimSpace(string(reqErr.Body))
		}
		if msg == "" {
			msg = http.StatusText(reqErr.HTTPStatusCode)
		}
		return &domain.UpstreamError{
			StatusCode: reqErr.HTTPStatusCode,
			Message:    msg,
			Cause:      statusCause(reqErr.HTTPStatusCode),
		}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &domain.UpstreamError{
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Cause:      statusCause(apiErr.HTTPStatusCode),
		}
	}

	// Non-JSON error bodies come back as a formatted string rather than a typed error.
	if m := plainStatusError.FindStringSubmatch(err.Error()); m != nil {
		status, _ := strconv.Atoi(m[1])
		msg := strings.TrimSpace(m[2])
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &domain.UpstreamError{StatusCode: status, Message: msg, Cause: statusCause(status)}
	}

	var cause error
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		cause = domain.ErrGenerationTimeout
	}
	return &domain.UpstreamError{Message: err.Error(), Cause: cause}
}

var plainStatusError = regexp.MustCompile(`(?s)^error, status code: (\d+), status: [^,]*, body: (.*)$`)

func statusCause(status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case status == http.StatusGatewayTimeout || status == http.StatusRequestTimeout:
		return domain.ErrGenerationTimeout
	default:
		return nil
	}
}

func errorType(e *domain.UpstreamError) string {
	switch {
	case errors.Is(e, domain.ErrGenerationTimeout):
		return "timeout"
	case errors.Is(e, domain.ErrRateLimited):
		return "rate_limited"
	case e.StatusCode == 0:
		return "transport"
	default:
		return "api_error"
	}
}

// extractMessage pulls a message out of a JSON error body ({"error":{"message":...}} or {"detail":...}).
func extractMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	if parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return parsed.Detail
}
