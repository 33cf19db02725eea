package engine

import (
	"context"
	"log/slog"

	"hibiki/internal/intent"
)

// FallbackProvider tries a primary classification provider and degrades to a
// secondary one when the primary fails. It is how a model-backed deployment
// keeps interpreting utterances through API outages and rate limits.
type FallbackProvider struct {
	primary   intent.Provider
	secondary intent.Provider
}

// NewFallbackProvider wraps primary with secondary as the degradation path.
func NewFallbackProvider(primary, secondary intent.Provider) *FallbackProvider {
	return &FallbackProvider{primary: primary, secondary: secondary}
}

// Classify asks the primary provider first and falls back on any error.
func (f *FallbackProvider) Classify(ctx context.Context, utterance string) (*intent.Classification, error) {
	cmd, err := f.primary.Classify(ctx, utterance)
	if err == nil {
		return cmd, nil
	}
	slog.Warn("primary classifier failed, falling back", "error", err)
	return f.secondary.Classify(ctx, utterance)
}
