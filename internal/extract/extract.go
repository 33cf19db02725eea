// Package extract pulls structured parameters out of free-form utterances.
//
// Extraction is deliberately forgiving: nothing in this package ever returns
// an error. A fragment that cannot be parsed is simply omitted from the
// parameter map, and detecting "missing" is the validator's job. The one
// exception to silent omission is the needs-clarification marker, which an
// extraction routine plants when it can already tell the validator exactly
// which field the user left out.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"hibiki/internal/intent"
)

// Parameter map keys shared with the validator and the action handlers.
const (
	KeyOriginalText       = "original_text"
	KeyDescription        = "description"
	KeyDueDate            = "due_date"
	KeyPriority           = "priority"
	KeyReminderTime       = "reminder_time"
	KeyDurationSeconds    = "duration_seconds"
	KeyName               = "name"
	KeyContent            = "content"
	KeyTargetDate         = "target_date"
	KeyStatusType         = "type"
	KeyNeedsClarification = "needs_clarification"
)

// SentinelDescription is the fixed placeholder substituted when description
// stripping leaves nothing behind. The validator treats it as "missing", not
// as a real description.
const SentinelDescription = "unspecified task"

// DefaultTimerSeconds is the duration used when a timer request names no
// duration at all: 25 minutes, the focus-session convention. Timers never
// fail purely for a missing duration.
const DefaultTimerSeconds = 25 * 60

// defaultReminderLead is how far ahead a reminder lands when the utterance
// names no time.
const defaultReminderLead = time.Hour

// Parameters runs the intent-specific extraction routine for name over the
// utterance. now anchors all relative datetime phrases. The returned map
// always carries the verbatim utterance under KeyOriginalText.
func Parameters(name intent.Intent, utterance string, now time.Time) map[string]any {
	params := map[string]any{KeyOriginalText: utterance}

	switch name {
	case intent.CreateTask:
		params[KeyDescription] = Description(utterance)
		if due, ok := Datetime(utterance, now); ok {
			params[KeyDueDate] = due.Format(time.RFC3339)
		}
		if p := Priority(utterance); p > 0 {
			params[KeyPriority] = p
		}
		if params[KeyDescription] == SentinelDescription {
			params[KeyNeedsClarification] = KeyDescription
		}

	case intent.SetReminder:
		params[KeyDescription] = Description(utterance)
		if at, ok := Datetime(utterance, now); ok {
			params[KeyReminderTime] = at.Format(time.RFC3339)
		} else {
			params[KeyReminderTime] = now.Add(defaultReminderLead).Format(time.RFC3339)
		}
		if params[KeyDescription] == SentinelDescription {
			params[KeyNeedsClarification] = KeyDescription
		}

	case intent.StartTimer:
		if secs, ok := Duration(utterance); ok {
			params[KeyDurationSeconds] = secs
		} else {
			params[KeyDurationSeconds] = DefaultTimerSeconds
		}
		if name := Description(utterance); name != SentinelDescription {
			params[KeyName] = name
		}

	case intent.TakeNote:
		if content := noteContent(utterance); content != "" {
			params[KeyContent] = content
		} else {
			params[KeyNeedsClarification] = KeyContent
		}

	case intent.CreateGoal:
		if name := goalName(utterance); name != "" {
			params[KeyName] = name
		} else {
			params[KeyNeedsClarification] = KeyName
		}
		if target, ok := Datetime(utterance, now); ok {
			params[KeyTargetDate] = target.Format(time.RFC3339)
		}

	case intent.GetStatus:
		params[KeyStatusType] = statusType(utterance)

	case intent.Greet, intent.GetTime, intent.Unknown:
		// Nothing beyond the original text.
	}

	return params
}

// ---------------------------------------------------------------------------
// Duration
// ---------------------------------------------------------------------------

var reDuration = regexp.MustCompile(`(\d+)\s*(seconds?|secs?|minutes?|mins?|hours?|hrs?|days?)\b`)

// Duration extracts "<integer> <unit>" from the utterance and converts it to
// seconds. Recognized units are second/minute/hour/day with the usual
// abbreviations. The second return value is false when no duration phrase is
// present.
func Duration(text string) (int, bool) {
	m := reDuration.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	switch {
	case strings.HasPrefix(m[2], "sec"):
		return n, true
	case strings.HasPrefix(m[2], "min"):
		return n * 60, true
	case strings.HasPrefix(m[2], "hour"), strings.HasPrefix(m[2], "hr"):
		return n * 3600, true
	default: // days
		return n * 86400, true
	}
}

// ---------------------------------------------------------------------------
// Priority
// ---------------------------------------------------------------------------

// priorityKeywords maps urgency words to the 0–3 ordinal scale the validator
// accepts. Absence of any keyword yields 0, the neutral default.
var priorityKeywords = map[string]int{
	"high": 3, "urgent": 3, "important": 3, "critical": 3,
	"medium": 2, "normal": 2, "moderate": 2,
	"low": 1, "minor": 1, "later": 1,
}

// Priority infers an ordinal priority from urgency words in the utterance.
func Priority(text string) int {
	best := 0
	for _, word := range tokens(text) {
		if p, ok := priorityKeywords[word]; ok && p > best {
			best = p
		}
	}
	return best
}

// ---------------------------------------------------------------------------
// Description
// ---------------------------------------------------------------------------

// commandPrefixes are the trigger phrases stripped from the front of an
// utterance before the residual words become the description. Longer
// prefixes are listed before their shorter variants so "create task to " is
// consumed ahead of "create task ".
var commandPrefixes = []string{
	"create a task to ", "create a task ", "create task to ", "create task ",
	"add a task to ", "add a task ", "add task to ", "add task ",
	"new task to ", "new task ",
	"remind me to ", "remind me ",
	"set a reminder to ", "set a reminder ", "set reminder to ", "set reminder ",
	"reminder to ",
	"start a timer for ", "start a timer ", "start timer for ", "start timer ",
	"set a timer for ", "set a timer ", "set timer for ", "set timer ",
	"todo ", "to do ",
}

// timeWords are standalone tokens dropped from descriptions because they
// belong to a time phrase, not to what the user wants to do.
var timeWords = map[string]struct{}{
	"today": {}, "tomorrow": {}, "tonight": {},
	"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {},
	"friday": {}, "saturday": {}, "sunday": {},
	"am": {}, "pm": {},
}

var reClockToken = regexp.MustCompile(`^\d{1,2}(:\d{2})?(am|pm)?$`)
var reDigits = regexp.MustCompile(`^\d+$`)

// durationUnits are the unit tokens that terminate an "in N <unit>" phrase.
var durationUnits = map[string]struct{}{
	"second": {}, "seconds": {}, "sec": {}, "secs": {},
	"minute": {}, "minutes": {}, "min": {}, "mins": {},
	"hour": {}, "hours": {}, "hr": {}, "hrs": {},
	"day": {}, "days": {},
}

// Description extracts the free-text description from a command utterance:
// strip a known trigger prefix, then drop time, priority, and weekday tokens
// from what remains. When nothing survives the stripping it returns
// SentinelDescription.
func Description(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, prefix := range commandPrefixes {
		if strings.HasPrefix(lower, prefix) {
			lower = strings.TrimSpace(lower[len(prefix):])
			break
		}
		// A bare trigger ("create task") is the whole utterance; nothing
		// survives the strip.
		if lower == strings.TrimRight(prefix, " ") {
			lower = ""
			break
		}
	}

	words := strings.Fields(lower)
	var kept []string
	for i := 0; i < len(words); i++ {
		word := strings.Trim(words[i], ".,!?")

		if _, ok := priorityKeywords[word]; ok {
			continue
		}
		if _, ok := timeWords[word]; ok {
			continue
		}
		// "priority" as a bare qualifier ("high priority") adds nothing.
		if word == "priority" {
			continue
		}
		// "next week" / "next month" / "next friday"
		if word == "next" && i+1 < len(words) {
			next := strings.Trim(words[i+1], ".,!?")
			if next == "week" || next == "month" {
				i++
				continue
			}
			if _, ok := timeWords[next]; ok {
				i++
				continue
			}
		}
		// "at 3pm", "at 14:30"
		if word == "at" && i+1 < len(words) {
			next := strings.Trim(words[i+1], ".,!?")
			if reClockToken.MatchString(next) {
				i++
				// swallow a trailing am/pm written as its own word
				if i+1 < len(words) {
					if follow := strings.Trim(words[i+1], ".,!?"); follow == "am" || follow == "pm" {
						i++
					}
				}
				continue
			}
		}
		// "in 30 minutes", "for 2 hours"
		if (word == "in" || word == "for") && i+2 < len(words) {
			n := strings.Trim(words[i+1], ".,!?")
			unit := strings.Trim(words[i+2], ".,!?")
			if reDigits.MatchString(n) {
				if _, ok := durationUnits[unit]; ok {
					i += 2
					continue
				}
			}
		}
		// bare "5 minutes" left over after a stripped timer prefix
		if reDigits.MatchString(word) && i+1 < len(words) {
			unit := strings.Trim(words[i+1], ".,!?")
			if _, ok := durationUnits[unit]; ok {
				i++
				continue
			}
		}

		kept = append(kept, words[i])
	}

	description := strings.Trim(strings.Join(kept, " "), " .,!?")
	if description == "" {
		return SentinelDescription
	}
	return description
}

// ---------------------------------------------------------------------------
// Notes, goals, status
// ---------------------------------------------------------------------------

// notePrefixes and goalPrefixes are stripped case-insensitively but the
// residual content keeps the user's original casing.
var notePrefixes = []string{
	"take a note ", "take note ", "note that ", "note ",
	"write down ", "remember that ", "remember ",
}

var goalPrefixes = []string{
	"create a goal to ", "create a goal ", "create goal to ", "create goal ",
	"add a goal to ", "add a goal ", "add goal to ", "add goal ",
	"new goal to ", "new goal ", "set a goal to ", "set a goal ",
}

func stripPrefix(text string, prefixes []string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	trimmed := strings.TrimSpace(text)
	for _, prefix := range prefixes {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(trimmed[len(prefix):])
		}
		if lower == strings.TrimRight(prefix, " ") {
			return ""
		}
	}
	return trimmed
}

// noteContent returns everything after the note trigger, original casing
// preserved. An utterance that is nothing but the trigger yields "".
func noteContent(text string) string {
	return stripPrefix(text, notePrefixes)
}

// goalName returns the goal text after the trigger, original casing
// preserved, with trailing time phrases left in place (the validator and
// prompts consume the target date separately).
func goalName(text string) string {
	return stripPrefix(text, goalPrefixes)
}

// statusType maps a status question onto one of the record families, or
// "all" when the user did not narrow it down.
func statusType(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "task"):
		return "tasks"
	case strings.Contains(lower, "goal"):
		return "goals"
	case strings.Contains(lower, "reminder"):
		return "reminders"
	case strings.Contains(lower, "timer"):
		return "timers"
	default:
		return "all"
	}
}

// tokens splits text into lowercase word tokens with punctuation stripped.
func tokens(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := strings.Trim(f, ".,!?"); w != "" {
			out = append(out, w)
		}
	}
	return out
}
