package domain

import (
	"context"
	"strings"
	"time"
)

// Generation is the raw provider output for one prompt.
type Generation struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Post is a generated post returned to the caller.
type Post struct {
	ID        string
	Idea      string
	Tone      Tone
	Text      string
	Model     string
	CreatedAt time.Time
}

// Generator produces post text for an idea in a given tone.
type Generator interface {
	Generate(ctx context.Context, idea string, tone Tone) (Generation, error)
}

// HealthChecker is an optional interface for generators that can verify provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NormalizeIdea trims surrounding whitespace and rejects blank ideas.
func NormalizeIdea(raw string) (string, error) {
	idea := strings.TrimSpace(raw)
	if idea == "" {
		return "", ErrEmptyIdea
	}
	return idea, nil
}
