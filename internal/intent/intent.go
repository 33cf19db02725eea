// Package intent provides the natural-language classification layer for Hibiki.
//
// The classifier sits between the raw utterance delivered by the speech
// pipeline and the command validator. Its sole responsibility is translation:
// score a free-form sentence against the rule table and produce a
// Classification (intent + parameters + confidence) that the validation and
// dialogue layers can process.
//
// Two implementations satisfy the Provider contract: the deterministic
// rule-table classifier in this package (paired with the extract package) and
// the LLM-backed provider in internal/nlp. The validator and dialogue manager
// never know which one produced a Classification.
package intent

import (
	"context"
	"errors"
)

// Intent is the classified user goal. The set is closed: every value the
// system can produce is declared below, and downstream switches are written
// to cover all of them.
type Intent string

const (
	// CreateTask means the user wants a new task or todo recorded.
	CreateTask Intent = "create_task"
	// SetReminder means the user wants to be reminded of something at a time.
	SetReminder Intent = "set_reminder"
	// StartTimer means the user wants a countdown timer started.
	StartTimer Intent = "start_timer"
	// TakeNote means the user wants free-form text written down.
	TakeNote Intent = "take_note"
	// CreateGoal means the user wants a longer-term goal recorded.
	CreateGoal Intent = "create_goal"
	// GetTime means the user asked for the current time.
	GetTime Intent = "get_time"
	// GetStatus means the user asked what is on their plate.
	GetStatus Intent = "get_status"
	// Greet is a salutation with no action attached.
	Greet Intent = "greet"
	// Unknown means no rule matched with any confidence.
	Unknown Intent = "unknown_intent"
)

// All lists every supported intent in rule-table order. The order is load
// bearing: it is the tie-break policy when two intents match with equal
// confidence (see Table.Match).
var All = []Intent{
	Greet,
	CreateTask,
	SetReminder,
	StartTimer,
	TakeNote,
	CreateGoal,
	GetTime,
	GetStatus,
}

// Known reports whether name is a member of the closed intent set
// (Unknown included).
func Known(name Intent) bool {
	if name == Unknown {
		return true
	}
	for _, i := range All {
		if i == name {
			return true
		}
	}
	return false
}

// UnknownConfidence is the fixed confidence attached to an Unknown
// classification. It is deliberately nonzero so callers can distinguish
// "nothing matched" from an explicit zero-confidence result.
const UnknownConfidence = 0.2

// Classification is the structured output of a classify+extract pass over a
// single utterance. It is built once, never mutated, and consumed once by the
// validator.
type Classification struct {
	// Intent is the winning intent, or Unknown.
	Intent Intent `json:"intent"`

	// Parameters holds the extracted fields for the intent. It always
	// contains the original utterance under the "original_text" key so
	// downstream consumers have a fallback.
	Parameters map[string]any `json:"parameters"`

	// Confidence is the classifier's self-reported certainty in [0,1].
	Confidence float64 `json:"confidence"`
}

// ErrMalformedOutput is returned by a Provider when the upstream classifier
// produced output that cannot be interpreted as a Classification (e.g. the
// LLM returned JSON that fails schema validation). Callers should surface a
// rephrase prompt rather than a generic failure.
var ErrMalformedOutput = errors.New("intent: malformed classifier output")

// Provider classifies a free-form utterance into a Classification.
//
// Implementations must be safe for concurrent use and must never panic on
// malformed input; the worst permissible result is an Unknown classification.
type Provider interface {
	Classify(ctx context.Context, utterance string) (*Classification, error)
}
