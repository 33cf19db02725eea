package engine

import (
	"context"
	"time"

	"hibiki/internal/extract"
	"hibiki/internal/intent"
)

// KeywordProvider classifies utterances with the deterministic rule table
// and extracts parameters with the pattern extractor. It is the default
// provider and the fallback when no language model is configured.
type KeywordProvider struct {
	table *intent.Table
	now   func() time.Time
}

// NewKeywordProvider creates a provider over the given rule table. A nil
// table uses the built-in default rules.
func NewKeywordProvider(table *intent.Table) *KeywordProvider {
	if table == nil {
		table = intent.DefaultTable()
	}
	return &KeywordProvider{table: table, now: time.Now}
}

// NewKeywordProviderAt is NewKeywordProvider with an injected clock, so
// tests can pin relative datetime extraction.
func NewKeywordProviderAt(table *intent.Table, now func() time.Time) *KeywordProvider {
	p := NewKeywordProvider(table)
	p.now = now
	return p
}

// Classify matches the utterance against the rule table and fills the
// parameter map for the winning intent. It never fails; an utterance no
// rule matches comes back as the unknown intent with low confidence.
func (p *KeywordProvider) Classify(_ context.Context, utterance string) (*intent.Classification, error) {
	name, confidence := p.table.Match(utterance)
	return &intent.Classification{
		Intent:     name,
		Parameters: extract.Parameters(name, utterance, p.now()),
		Confidence: confidence,
	}, nil
}
