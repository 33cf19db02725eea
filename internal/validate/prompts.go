package validate

import (
	"fmt"
	"strings"
	"time"

	"hibiki/internal/extract"
	"hibiki/internal/intent"
)

// clarificationPrompt builds the question asked when a required field is
// missing, tailored to the intent and the first missing field.
func clarificationPrompt(name intent.Intent, field string) string {
	switch name {
	case intent.CreateTask:
		return "I can create a task, but I need to know what it's for. What should the task be?"
	case intent.SetReminder:
		if field == extract.KeyReminderTime {
			return "When should I remind you? For example, 'in 30 minutes' or 'at 3 pm'."
		}
		return "I can set a reminder, but what should I remind you about?"
	case intent.StartTimer:
		return "How long should the timer run? For example, '25 minutes' or '1 hour'."
	case intent.TakeNote:
		return "What would you like me to note down?"
	case intent.CreateGoal:
		return "I can create a goal, but what should the goal be?"
	default:
		return fmt.Sprintf("I need to know the %s before I can do that. Could you provide it?", strings.ReplaceAll(field, "_", " "))
	}
}

// confirmationPrompt restates a complete command in plain language so the
// user can approve or cancel it.
func (v *Validator) confirmationPrompt(name intent.Intent, params map[string]any) string {
	now := v.now()

	switch name {
	case intent.CreateTask:
		prompt := fmt.Sprintf("I'll create a task: '%s'", str(params, extract.KeyDescription))
		if due, ok := timestamp(params, extract.KeyDueDate); ok {
			prompt += " due " + humanizeTime(due, now)
		}
		if p, ok := asInt(params[extract.KeyPriority]); ok && p > 0 {
			prompt += " with " + priorityName(p) + " priority"
		}
		return prompt + ". Is this correct?"

	case intent.SetReminder:
		prompt := fmt.Sprintf("I'll remind you to '%s'", str(params, extract.KeyDescription))
		if at, ok := timestamp(params, extract.KeyReminderTime); ok {
			prompt += " " + humanizeTime(at, now)
		}
		return prompt + ". Is this correct?"

	case intent.StartTimer:
		secs, _ := asInt(params[extract.KeyDurationSeconds])
		timerName := str(params, extract.KeyName)
		if timerName == "" {
			timerName = "focus session"
		}
		return fmt.Sprintf("I'll start a %s timer for '%s'. Ready to begin?",
			humanizeDuration(secs), timerName)

	case intent.TakeNote:
		content := str(params, extract.KeyContent)
		if len(content) > 50 {
			content = content[:50] + "..."
		}
		return fmt.Sprintf("I'll save this note: '%s'. Is this correct?", content)

	case intent.CreateGoal:
		prompt := fmt.Sprintf("I'll create a goal: '%s'", str(params, extract.KeyName))
		if target, ok := timestamp(params, extract.KeyTargetDate); ok {
			prompt += " with target date " + humanizeTime(target, now)
		}
		return prompt + ". Is this correct?"

	default:
		return fmt.Sprintf("I'll go ahead with '%s'. Is this correct?", name)
	}
}

// humanizeTime renders a timestamp the way a person would say it, choosing
// the form by how far the moment is from now: "today at 3:00 pm",
// "tomorrow at 9:15 am", a weekday name within the week, or the full date.
func humanizeTime(t, now time.Time) string {
	clock := strings.ToLower(t.Format("3:04 pm"))

	switch {
	case sameDay(t, now):
		return "today at " + clock
	case sameDay(t, now.AddDate(0, 0, 1)):
		return "tomorrow at " + clock
	case t.Sub(now) < 7*24*time.Hour && t.After(now):
		return t.Format("Monday") + " at " + clock
	default:
		return strings.ToLower(t.Format("January 2")) + " at " + clock
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// humanizeDuration renders a second count as spoken units, e.g. 5400 →
// "1 hour and 30 minutes".
func humanizeDuration(seconds int) string {
	if seconds < 60 {
		return plural(seconds, "second")
	}
	minutes := seconds / 60
	if minutes < 60 {
		if rest := seconds % 60; rest != 0 {
			return plural(minutes, "minute") + " and " + plural(rest, "second")
		}
		return plural(minutes, "minute")
	}
	hours := minutes / 60
	if rest := minutes % 60; rest != 0 {
		return plural(hours, "hour") + " and " + plural(rest, "minute")
	}
	return plural(hours, "hour")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func priorityName(p int) string {
	switch p {
	case 1:
		return "low"
	case 2:
		return "medium"
	case 3:
		return "high"
	default:
		return "no"
	}
}

// str fetches a string parameter, returning "" for absent or non-string.
func str(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return s
}

// timestamp fetches and parses an RFC 3339 parameter.
func timestamp(params map[string]any, key string) (time.Time, bool) {
	s, ok := params[key].(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
