package postgen

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/postgen/internal/domain"
)

// Generator produces post text. Implement it to plug in a custom provider.
type Generator interface {
	Generate(ctx context.Context, idea string, tone Tone) (string, error)
}

// HealthChecker is optionally implemented by a Generator to report provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// generatorAdapter wraps public Generator to satisfy internal domain.Generator.
type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Generate(ctx context.Context, idea string, tone domain.Tone) (domain.Generation, error) {
	text, err := a.inner.Generate(ctx, idea, Tone(tone))
	if err != nil {
		if errors.Is(err, domain.ErrGenerationProvider) {
			return domain.Generation{}, err
		}
		return domain.Generation{}, fmt.Errorf("%w: %w", domain.ErrGenerationProvider, err)
	}
	return domain.Generation{Text: text}, nil
}

func (a *generatorAdapter) HealthCheck(ctx context.Context) error {
	if hc, ok := a.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
