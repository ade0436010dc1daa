package ai

import (
	"context"
	"strings"

	"haneye/internal/analysis"
)

type analyzerChain struct {
	primary  Analyzer
	fallback Analyzer
}

// WithFallback returns an analyzer that first tries the primary implementation
// and falls back to the provided analyzer when the primary is unavailable or
// produces an unusable response.
func WithFallback(primary, fallback Analyzer) Analyzer {
	if primary == nil {
		return fallback
	}
	if fallback == nil {
		return primary
	}
	return &analyzerChain{primary: primary, fallback: fallback}
}

func (c *analyzerChain) Enabled() bool {
	if c == nil {
		return false
	}
	if c.primary != nil && c.primary.Enabled() {
		return true
	}
	if c.fallback != nil && c.fallback.Enabled() {
		return true
	}
	return false
}

func (c *analyzerChain) Analyze(ctx context.Context, input Input) (analysis.Result, error) {
	if c == nil {
		return analysis.Result{}, ErrDisabled
	}
	if c.primary != nil && c.primary.Enabled() {
		if primary, primaryErr := c.primary.Analyze(ctx, input); primaryErr == nil {
			if strings.TrimSpace(primary.Verdict) != "" {
				return primary, nil
			}
		}
	}
	if c.fallback != nil && c.fallback.Enabled() {
		return c.fallback.Analyze(ctx, input)
	}
	return analysis.Result{}, ErrDisabled
}
