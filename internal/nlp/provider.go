// Package nlp provides the language-model classification provider for Hibiki.
//
// It is an alternative to the deterministic keyword provider: the utterance
// is sent to an OpenAI-compatible chat API with a strict JSON instruction,
// and the reply is schema-checked before it is trusted. The model only
// proposes a classification; validation, confirmation, and execution stay in
// the engine regardless of which provider produced the intent.
package nlp

import (
	"errors"
	"time"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 30 * time.Second
)

// ErrRateLimit is returned when the upstream API reports a rate-limiting
// condition (HTTP 429). Callers should tell the user to retry rather than
// silently degrading, because the utterance was received but not interpreted.
var ErrRateLimit = errors.New("nlp: upstream rate limit exceeded")

// Config configures the OpenAI-compatible provider.
type Config struct {
	// APIKey is the bearer token used to authenticate against the API.
	APIKey string

	// BaseURL overrides the API endpoint. Useful for local models (Ollama)
	// or any other OpenAI-compatible endpoint.
	// Defaults to https://api.openai.com/v1 when empty.
	BaseURL string

	// Model is the chat model to use. Defaults to gpt-4o-mini when empty.
	Model string

	// Timeout is the HTTP request timeout. Defaults to 30 s.
	Timeout time.Duration
}

// llmReply is the wire shape the model is instructed to produce.
type llmReply struct {
	Intent     string         `json:"intent"`
	Parameters map[string]any `json:"parameters"`
	Confidence float64        `json:"confidence"`
}
