package ai

import (
	"context"

	"github.com/sirupsen/logrus"

	"adcopy-engine/backend/internal/candidate"
	"adcopy-engine/backend/internal/refine"
)

type generatorChain struct {
	primary  Generator
	fallback Generator
}

// WithFallback returns a generator that first tries the primary implementation and
// retries once on the fallback when the primary rejects the model (HTTP 400/404).
// Any other primary failure is returned as is.
func WithFallback(primary, fallback Generator) Generator {
	if primary == nil {
		return fallback
	}
	if fallback == nil {
		return primary
	}
	return &generatorChain{primary: primary, fallback: fallback}
}

func (c *generatorChain) Enabled() bool {
	if c == nil {
		return false
	}
	return (c.primary != nil && c.primary.Enabled()) || (c.fallback != nil && c.fallback.Enabled())
}

func (c *generatorChain) Generate(ctx context.Context, req GenerateRequest) ([]candidate.Raw, error) {
	if !c.primary.Enabled() {
		return c.fallback.Generate(ctx, req)
	}
	raws, err := c.primary.Generate(ctx, req)
	if err == nil || !IsModelError(err) || !c.fallback.Enabled() {
		return raws, err
	}
	logrus.WithError(err).Warn("primary model rejected; retrying on fallback model")
	req.ModelOverride = ""
	return c.fallback.Generate(ctx, req)
}

func (c *generatorChain) Regenerate(ctx context.Context, instructions string, target candidate.Candidate) (candidate.Raw, error) {
	if !c.primary.Enabled() {
		return c.fallback.Regenerate(ctx, instructions, target)
	}
	raw, err := c.primary.Regenerate(ctx, instructions, target)
	if err == nil || !IsModelError(err) || !c.fallback.Enabled() {
		return raw, err
	}
	logrus.WithError(err).Warn("primary model rejected refinement; retrying on fallback model")
	return c.fallback.Regenerate(ctx, instructions, target)
}

// Regenerator adapts a Generator to the refinement callback the engine expects.
// A nil or disabled generator yields nil, which the refiner treats as a failed call.
func Regenerator(gen Generator) refine.Regenerator {
	if gen == nil || !gen.Enabled() {
		return nil
	}
	return func(ctx context.Context, instructions string, target candidate.Candidate) (candidate.Candidate, error) {
		raw, err := gen.Regenerate(ctx, instructions, target)
		if err != nil {
			return candidate.Candidate{}, err
		}
		return candidate.Candidate{
			Headline: raw.Headline,
			Subline:  raw.Subline,
			Hashtags: raw.Hashtags,
			Reasons:  raw.Reasons,
		}, nil
	}
}
