// Package validate checks extracted commands against per-intent schemas and
// decides what happens next: execute, confirm, clarify, or reject.
//
// Validation never propagates a failure to the dialogue layer. An internal
// panic is recovered and downgraded to an invalid outcome with a generic
// message, so every utterance still produces a spoken response.
package validate

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hibiki/internal/extract"
	"hibiki/internal/intent"
)

// Status is the verdict of a validation pass.
type Status string

const (
	// StatusValid means the command is execution-ready.
	StatusValid Status = "valid"
	// StatusNeedsConfirmation means the command is complete but
	// side-effecting; the user must approve the restated summary first.
	StatusNeedsConfirmation Status = "needs_confirmation"
	// StatusNeedsClarification means a required field is missing and the
	// Prompt asks for exactly that field.
	StatusNeedsClarification Status = "needs_clarification"
	// StatusInvalid means the command cannot proceed as understood.
	StatusInvalid Status = "invalid"
)

// Outcome is the transient result of validating one command. It is never
// persisted.
type Outcome struct {
	Status Status

	// Prompt is the spoken line for this outcome: a restated summary for
	// confirmations, a targeted question for clarifications, an apology for
	// invalid commands. Empty for StatusValid.
	Prompt string

	// Errors lists malformed-field problems, populated only when Status is
	// StatusInvalid due to type or range violations.
	Errors []string

	// Suggestions is optional guidance for the caller ("add a due date").
	// It never affects the Status.
	Suggestions []string
}

// schema declares what an intent needs before it may run.
type schema struct {
	required []string
	optional []string
	// confirm marks intents whose execution warrants a human check.
	confirm bool
}

// schemas is the per-intent field schema table. Every member of the closed
// intent set has an entry; anything else is rejected outright.
var schemas = map[intent.Intent]schema{
	intent.CreateTask: {
		required: []string{extract.KeyDescription},
		optional: []string{extract.KeyDueDate, extract.KeyPriority},
		confirm:  true,
	},
	intent.SetReminder: {
		required: []string{extract.KeyDescription, extract.KeyReminderTime},
		confirm:  true,
	},
	intent.StartTimer: {
		required: []string{extract.KeyDurationSeconds},
		optional: []string{extract.KeyName},
		confirm:  true,
	},
	intent.TakeNote: {
		required: []string{extract.KeyContent},
		confirm:  true,
	},
	intent.CreateGoal: {
		required: []string{extract.KeyName},
		optional: []string{extract.KeyTargetDate, extract.KeyPriority},
		confirm:  true,
	},
	intent.GetTime:   {},
	intent.GetStatus: {optional: []string{extract.KeyStatusType}},
	intent.Greet:     {},
}

// datetimeFields are the parameter keys that must parse as RFC 3339
// timestamps when present.
var datetimeFields = []string{extract.KeyDueDate, extract.KeyReminderTime, extract.KeyTargetDate}

// stringFields are the parameter keys that must be non-blank when present.
var stringFields = []string{extract.KeyDescription, extract.KeyContent, extract.KeyName}

// genericInvalidPrompt is the spoken fallback for unsupported intents and
// recovered internal faults alike.
const genericInvalidPrompt = "I'm sorry, I didn't understand that. Could you please rephrase?"

// Validator applies the schema table to extracted commands. The clock is
// injectable so confirmation prompts ("due tomorrow") are testable.
type Validator struct {
	now func() time.Time
}

// New returns a Validator using the wall clock.
func New() *Validator {
	return &Validator{now: time.Now}
}

// NewAt returns a Validator anchored to the given clock. Used in tests.
func NewAt(now func() time.Time) *Validator {
	return &Validator{now: now}
}

// Command validates the extracted parameters for an intent and returns the
// Outcome that drives the dialogue layer.
//
// Checks run in order: intent membership, required-field presence (the
// extractor's sentinel counts as absent), type and range checks, then the
// extractor's explicit needs-clarification marker. A complete, well-typed
// command for a side-effecting intent yields StatusNeedsConfirmation with a
// restated summary; everything else that passes yields StatusValid.
func (v *Validator) Command(name intent.Intent, params map[string]any) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("validation fault recovered", "intent", name, "panic", r)
			out = Outcome{Status: StatusInvalid, Prompt: genericInvalidPrompt,
				Errors: []string{"internal validation error"}}
		}
	}()

	sc, ok := schemas[name]
	if !ok {
		return Outcome{Status: StatusInvalid, Prompt: genericInvalidPrompt,
			Errors: []string{fmt.Sprintf("unsupported intent %q", name)}}
	}

	missing := missingFields(sc.required, params)
	suggestions := suggest(name, params, missing)

	if len(missing) > 0 {
		return Outcome{
			Status:      StatusNeedsClarification,
			Prompt:      clarificationPrompt(name, missing[0]),
			Suggestions: suggestions,
		}
	}

	if errs := fieldErrors(params); len(errs) > 0 {
		return Outcome{
			Status:      StatusInvalid,
			Prompt:      "That didn't look right: " + strings.Join(errs, "; ") + ". Could you restate it?",
			Errors:      errs,
			Suggestions: suggestions,
		}
	}

	if field, ok := params[extract.KeyNeedsClarification].(string); ok && field != "" {
		return Outcome{
			Status:      StatusNeedsClarification,
			Prompt:      clarificationPrompt(name, field),
			Suggestions: suggestions,
		}
	}

	if sc.confirm {
		return Outcome{
			Status:      StatusNeedsConfirmation,
			Prompt:      v.confirmationPrompt(name, params),
			Suggestions: suggestions,
		}
	}

	return Outcome{Status: StatusValid, Suggestions: suggestions}
}

// missingFields returns the required fields that are absent, empty, or equal
// to the extractor's sentinel placeholder, in schema order.
func missingFields(required []string, params map[string]any) []string {
	var missing []string
	for _, field := range required {
		val, ok := params[field]
		if !ok {
			missing = append(missing, field)
			continue
		}
		switch x := val.(type) {
		case string:
			if strings.TrimSpace(x) == "" || x == extract.SentinelDescription {
				missing = append(missing, field)
			}
		case nil:
			missing = append(missing, field)
		}
	}
	return missing
}

// fieldErrors applies type and range checks to whichever typed fields are
// present. Absent fields are not errors here; presence is the
// missing-field check's concern.
func fieldErrors(params map[string]any) []string {
	var errs []string

	for _, field := range datetimeFields {
		val, ok := params[field]
		if !ok {
			continue
		}
		s, isString := val.(string)
		if !isString {
			errs = append(errs, fmt.Sprintf("invalid %s format", field))
			continue
		}
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s format", field))
		}
	}

	if val, ok := params[extract.KeyPriority]; ok {
		if p, ok := asInt(val); !ok || p < 0 || p > 3 {
			errs = append(errs, "priority must be between 0 and 3")
		}
	}

	if val, ok := params[extract.KeyDurationSeconds]; ok {
		if d, ok := asInt(val); !ok || d <= 0 {
			errs = append(errs, "duration must be positive")
		}
	}

	for _, field := range stringFields {
		val, ok := params[field]
		if !ok {
			continue
		}
		if s, isString := val.(string); !isString || strings.TrimSpace(s) == "" {
			errs = append(errs, fmt.Sprintf("%s cannot be empty", field))
		}
	}

	return errs
}

// asInt normalizes the numeric types a parameter map can carry (native ints
// from the extractor, float64 from JSON-decoded LLM output).
func asInt(val any) (int, bool) {
	switch x := val.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if x != float64(int(x)) {
			return 0, false
		}
		return int(x), true
	default:
		return 0, false
	}
}

// suggest produces optional improvement hints. These are surfaced as
// guidance only and never change the validation verdict.
func suggest(name intent.Intent, params map[string]any, missing []string) []string {
	var s []string
	has := func(key string) bool { _, ok := params[key]; return ok }
	missingHas := func(key string) bool {
		for _, m := range missing {
			if m == key {
				return true
			}
		}
		return false
	}

	switch name {
	case intent.CreateTask:
		if missingHas(extract.KeyDescription) {
			s = append(s, "try: 'create task to finish the report'")
		}
		if !has(extract.KeyDueDate) {
			s = append(s, "add a due date like 'tomorrow' or 'next friday'")
		}
		if !has(extract.KeyPriority) {
			s = append(s, "mention a priority like 'high priority'")
		}
	case intent.SetReminder:
		if missingHas(extract.KeyDescription) {
			s = append(s, "try: 'remind me to call John'")
		}
		if missingHas(extract.KeyReminderTime) {
			s = append(s, "say when: 'in 30 minutes' or 'at 3 pm'")
		}
	case intent.StartTimer:
		if !has(extract.KeyName) {
			s = append(s, "name the timer: 'start a 25 minute focus timer'")
		}
	case intent.TakeNote:
		if missingHas(extract.KeyContent) {
			s = append(s, "try: 'take note meeting moved to friday'")
		}
	case intent.CreateGoal:
		if !has(extract.KeyTargetDate) {
			s = append(s, "add a target date like 'by next month'")
		}
	}
	return s
}
