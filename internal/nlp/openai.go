package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hibiki/common/retry"
	"hibiki/internal/intent"
)

// openAIProvider implements intent.Provider using the OpenAI chat completions
// API with JSON-mode output.
type openAIProvider struct {
	cfg    Config
	client *http.Client
}

// New returns a classification provider backed by the OpenAI (or compatible)
// chat API. The returned provider is safe for concurrent use.
func New(cfg Config) intent.Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &openAIProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// --- minimal OpenAI wire types ---

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiRequest struct {
	Model          string       `json:"model"`
	Messages       []oaiMessage `json:"messages"`
	MaxTokens      int          `json:"max_tokens,omitempty"`
	ResponseFormat *oaiFormat   `json:"response_format,omitempty"`
}

type oaiFormat struct {
	Type string `json:"type"` // "json_object"
}

type oaiResponse struct {
	Choices []oaiChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type oaiChoice struct {
	Message      oaiMessage `json:"message"`
	FinishReason string     `json:"finish_reason"`
}

// systemPromptTmpl is the instruction set sent as the "system" message.
// One printf verb is substituted at call time: the comma-separated intent list.
const systemPromptTmpl = `You are the command interpreter for Hibiki, a voice-driven personal assistant.

Your only job is to classify the user's utterance into one intent and extract
its parameters. You NEVER execute commands yourself.

Valid intents: %s
If none of them fits, use "unknown_intent".

Parameters by intent:
  create_task:  description (string), due_date (RFC3339, optional), priority (0-3, optional)
  set_reminder: description (string), reminder_time (RFC3339)
  start_timer:  duration_seconds (integer), name (string, optional)
  take_note:    content (string)
  create_goal:  name (string), target_date (RFC3339, optional)
  get_status:   type ("tasks" | "reminders" | "timers" | "goals" | "all")
  get_time, greet, unknown_intent: no parameters

RULES (strict):
1. Respond ONLY with valid JSON. No markdown, no code fences, no prose.
2. All datetimes must be RFC3339 in the user's timezone; the current time is given below.
3. Do not invent intent names or parameter names.
4. confidence is your 0-1 certainty that the chosen intent is correct.

JSON schema for your response:
{
  "intent":     "<one of the valid intents>",
  "parameters": {"<name>": <value>, ...},
  "confidence": 0.0-1.0
}

Current time: %s
`

// Classify sends the utterance to the model and returns a guarded
// classification. Malformed model output is reported as
// intent.ErrMalformedOutput so the caller can fall back deterministically.
func (p *openAIProvider) Classify(ctx context.Context, utterance string) (*intent.Classification, error) {
	system := fmt.Sprintf(systemPromptTmpl, intentNames(), nowRFC3339())

	body := oaiRequest{
		Model: p.cfg.Model,
		Messages: []oaiMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: utterance},
		},
		MaxTokens:      256,
		ResponseFormat: &oaiFormat{Type: "json_object"},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("nlp: marshal request: %w", err)
	}

	// Retry transport-level failures only; rate limits and malformed model
	// output are not transient in the same way.
	var content string
	err = retry.Do(ctx, retry.Config{
		MaxAttempts:  2,
		InitialDelay: 300 * time.Millisecond,
		ShouldRetry: func(err error) bool {
			var urlErr *url.Error
			return errors.As(err, &urlErr)
		},
	}, func() error {
		var err error
		content, err = p.complete(ctx, data)
		return err
	})
	if err != nil {
		return nil, err
	}

	reply, err := decodeReply([]byte(content))
	if err != nil {
		return nil, err
	}

	return guard(reply, utterance), nil
}

// complete performs one chat-completions round trip and returns the raw
// message content of the first choice.
func (p *openAIProvider) complete(ctx context.Context, data []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/chat/completions",
		bytes.NewReader(data),
	)
	if err != nil {
		return "", fmt.Errorf("nlp: create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("nlp: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", ErrRateLimit
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("nlp: read response body: %w", err)
	}

	var oaiResp oaiResponse
	if err := json.Unmarshal(respBody, &oaiResp); err != nil {
		return "", fmt.Errorf("nlp: decode API response: %w", err)
	}

	if oaiResp.Error != nil {
		return "", fmt.Errorf("nlp: API error (%s): %s", oaiResp.Error.Type, oaiResp.Error.Message)
	}

	if len(oaiResp.Choices) == 0 {
		return "", fmt.Errorf("nlp: no choices returned (HTTP %d)", resp.StatusCode)
	}

	return oaiResp.Choices[0].Message.Content, nil
}

// guard normalizes a schema-valid model reply into a Classification the rest
// of the pipeline can trust: unrecognized intent names collapse to the
// unknown intent and the original utterance is always carried along.
func guard(reply *llmReply, utterance string) *intent.Classification {
	name := intent.Intent(reply.Intent)
	confidence := reply.Confidence
	if !intent.Known(name) && name != intent.Unknown {
		name = intent.Unknown
		confidence = intent.UnknownConfidence
	}

	params := reply.Parameters
	if params == nil {
		params = make(map[string]any)
	}
	params["original_text"] = utterance

	return &intent.Classification{
		Intent:     name,
		Parameters: params,
		Confidence: confidence,
	}
}

// intentNames renders the closed intent set for the system prompt.
func intentNames() string {
	names := make([]string, 0, len(intent.All))
	for _, name := range intent.All {
		names = append(names, string(name))
	}
	return strings.Join(names, ", ")
}
