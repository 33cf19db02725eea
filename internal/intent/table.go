package intent

import (
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Rule binds one intent to its trigger patterns and the fixed base confidence
// reported when any of them matches.
//
// A pattern containing a space is matched as a phrase (substring of the
// lowercased utterance); a single word is matched against whole tokens only,
// so the cue "hi" does not fire inside "this".
type Rule struct {
	Intent     Intent   `yaml:"intent"`
	Confidence float64  `yaml:"confidence"`
	Patterns   []string `yaml:"patterns"`
}

// Table is a priority-ordered rule table. Order is part of the contract:
// when two rules match with equal confidence, the earlier rule wins.
type Table struct {
	rules []Rule
}

// ruleFile is the YAML document shape accepted by Parse.
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// NewTable builds a Table from the given rules after validating them.
func NewTable(rules []Rule) (*Table, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("intent: rule table must not be empty")
	}
	for i, r := range rules {
		if !Known(r.Intent) || r.Intent == Unknown {
			return nil, fmt.Errorf("intent: rules[%d]: unknown intent %q", i, r.Intent)
		}
		if r.Confidence <= 0 || r.Confidence > 1 {
			return nil, fmt.Errorf("intent: rules[%d] (%s): confidence must be in (0,1], got %v", i, r.Intent, r.Confidence)
		}
		if len(r.Patterns) == 0 {
			return nil, fmt.Errorf("intent: rules[%d] (%s): at least one pattern is required", i, r.Intent)
		}
		for j, p := range r.Patterns {
			if strings.TrimSpace(p) == "" {
				return nil, fmt.Errorf("intent: rules[%d] (%s): patterns[%d] is blank", i, r.Intent, j)
			}
		}
	}
	return &Table{rules: rules}, nil
}

// Parse decodes a YAML rule file into a Table and validates it. It is the
// canonical entry point for loading an operator-supplied rule table.
func Parse(data []byte) (*Table, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("intent: parse rule file: %w", err)
	}
	return NewTable(f.Rules)
}

// DefaultTable returns the built-in rule table. The entries follow the order
// of All so the tie-break policy is stable across releases.
func DefaultTable() *Table {
	t, err := NewTable([]Rule{
		{Intent: Greet, Confidence: 0.85, Patterns: []string{
			"hello", "hi", "hey", "good morning", "good afternoon", "good evening",
		}},
		{Intent: CreateTask, Confidence: 0.9, Patterns: []string{
			"create task", "create a task", "add task", "add a task", "new task",
		}},
		{Intent: SetReminder, Confidence: 0.92, Patterns: []string{
			"remind me", "set reminder", "set a reminder", "reminder to",
		}},
		{Intent: StartTimer, Confidence: 0.92, Patterns: []string{
			"start timer", "start a timer", "set timer", "set a timer", "countdown",
		}},
		{Intent: TakeNote, Confidence: 0.88, Patterns: []string{
			"take note", "take a note", "write down", "note that", "remember that",
		}},
		{Intent: CreateGoal, Confidence: 0.9, Patterns: []string{
			"create goal", "create a goal", "add goal", "add a goal", "new goal", "set a goal",
		}},
		{Intent: GetTime, Confidence: 0.95, Patterns: []string{
			"what time", "current time", "time is it",
		}},
		{Intent: GetStatus, Confidence: 0.8, Patterns: []string{
			"status", "my tasks", "my day", "what's on my plate", "how am i doing",
		}},
	})
	if err != nil {
		// The built-in table is covered by tests; a failure here is a
		// programming error, not an input error.
		panic(err)
	}
	return t
}

// Rules returns a copy of the table's rules, preserving order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Match scores the utterance against every rule and returns the winning
// intent with its base confidence.
//
// Selection: the strictly highest confidence wins; on a tie the rule that
// appears earlier in the table keeps the win. When no pattern matches at all,
// Match returns (Unknown, UnknownConfidence). Match is pure and never fails,
// whatever the input.
func (t *Table) Match(utterance string) (Intent, float64) {
	lower := strings.ToLower(utterance)
	tokens := tokenSet(lower)

	best := Unknown
	bestConf := 0.0
	for _, r := range t.rules {
		if !ruleMatches(r, lower, tokens) {
			continue
		}
		if r.Confidence > bestConf {
			best = r.Intent
			bestConf = r.Confidence
		}
	}
	if best == Unknown {
		return Unknown, UnknownConfidence
	}
	return best, bestConf
}

// ruleMatches reports whether any of the rule's patterns fires on the
// utterance. The first matching pattern is sufficient.
func ruleMatches(r Rule, lower string, tokens map[string]struct{}) bool {
	for _, p := range r.Patterns {
		p = strings.ToLower(p)
		if strings.ContainsRune(p, ' ') {
			if strings.Contains(lower, p) {
				return true
			}
			continue
		}
		if _, ok := tokens[p]; ok {
			return true
		}
	}
	return false
}

// tokenSet splits a lowercased utterance into word tokens, dropping
// punctuation so "hi," still matches the "hi" cue.
func tokenSet(lower string) map[string]struct{} {
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
