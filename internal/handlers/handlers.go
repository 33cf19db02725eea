// Package handlers executes interpreted commands against the assistant's
// persistent state and produces the spoken acknowledgment for each.
//
// Handlers run only after a command has passed validation and, where
// required, explicit user confirmation. They still re-parse parameter
// values defensively since the parameter map is loosely typed.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hibiki/internal/extract"
	"hibiki/internal/intent"
	"hibiki/internal/store"
)

// statusLimit caps how many items of each kind a status summary mentions.
const statusLimit = 5

// Registry executes commands by intent name.
type Registry struct {
	store *store.Store
	now   func() time.Time
}

// New creates a Registry backed by the given store.
func New(st *store.Store) *Registry {
	return &Registry{store: st, now: time.Now}
}

// NewAt creates a Registry with an injected clock, for tests.
func NewAt(st *store.Store, now func() time.Time) *Registry {
	return &Registry{store: st, now: now}
}

// Execute runs the handler for a validated command and returns the spoken
// acknowledgment. Unrecognized intents are an error; validation upstream
// should have rejected them.
func (r *Registry) Execute(ctx context.Context, cmd *intent.Classification) (string, error) {
	switch cmd.Intent {
	case intent.CreateTask:
		return r.createTask(ctx, cmd.Parameters)
	case intent.SetReminder:
		return r.setReminder(ctx, cmd.Parameters)
	case intent.StartTimer:
		return r.startTimer(ctx, cmd.Parameters)
	case intent.TakeNote:
		return r.takeNote(ctx, cmd.Parameters)
	case intent.CreateGoal:
		return r.createGoal(ctx, cmd.Parameters)
	case intent.GetTime:
		return r.tellTime(), nil
	case intent.GetStatus:
		return r.status(ctx, cmd.Parameters)
	case intent.Greet:
		return "Hello! How can I help you today?", nil
	default:
		return "", fmt.Errorf("no handler for intent %q", cmd.Intent)
	}
}

func (r *Registry) createTask(ctx context.Context, params map[string]any) (string, error) {
	description := str(params, extract.KeyDescription)
	due := timestamp(params, extract.KeyDueDate)
	priority := integer(params, extract.KeyPriority)

	task, err := r.store.CreateTask(ctx, description, due, priority)
	if err != nil {
		return "", fmt.Errorf("failed to save task: %w", err)
	}
	slog.Info("task created", "id", task.ID, "priority", priority)

	reply := fmt.Sprintf("Done. I've added '%s' to your tasks", description)
	if due != nil {
		reply += ", due " + spokenTime(*due, r.now())
	}
	return reply + ".", nil
}

func (r *Registry) setReminder(ctx context.Context, params map[string]any) (string, error) {
	description := str(params, extract.KeyDescription)
	when := timestamp(params, extract.KeyReminderTime)
	if when == nil {
		return "", fmt.Errorf("reminder time missing or malformed")
	}

	reminder, err := r.store.CreateReminder(ctx, description, *when)
	if err != nil {
		return "", fmt.Errorf("failed to save reminder: %w", err)
	}
	slog.Info("reminder created", "id", reminder.ID, "remind_at", when)

	return fmt.Sprintf("Okay, I'll remind you to %s %s.", description, spokenTime(*when, r.now())), nil
}

func (r *Registry) startTimer(ctx context.Context, params map[string]any) (string, error) {
	seconds := integer(params, extract.KeyDurationSeconds)
	if seconds <= 0 {
		return "", fmt.Errorf("timer duration missing or malformed")
	}
	name := str(params, extract.KeyName)
	if name == "" {
		name = "focus session"
	}

	timer, err := r.store.CreateTimer(ctx, name, seconds)
	if err != nil {
		return "", fmt.Errorf("failed to save timer: %w", err)
	}
	slog.Info("timer started", "id", timer.ID, "duration_seconds", seconds)

	return fmt.Sprintf("Timer started: %s for '%s'. I'll let you know when it's up.", spokenDuration(seconds), name), nil
}

func (r *Registry) takeNote(ctx context.Context, params map[string]any) (string, error) {
	content := str(params, extract.KeyContent)

	note, err := r.store.CreateNote(ctx, content)
	if err != nil {
		return "", fmt.Errorf("failed to save note: %w", err)
	}
	slog.Info("note captured", "id", note.ID)

	return fmt.Sprintf("Noted: %s", content), nil
}

func (r *Registry) createGoal(ctx context.Context, params map[string]any) (string, error) {
	name := str(params, extract.KeyName)
	target := timestamp(params, extract.KeyTargetDate)

	goal, err := r.store.CreateGoal(ctx, name, target)
	if err != nil {
		return "", fmt.Errorf("failed to save goal: %w", err)
	}
	slog.Info("goal created", "id", goal.ID)

	reply := fmt.Sprintf("New goal set: '%s'", name)
	if target != nil {
		reply += ", targeting " + spokenTime(*target, r.now())
	}
	return reply + ". You've got this!", nil
}

func (r *Registry) tellTime() string {
	now := r.now()
	return fmt.Sprintf("It's %s on %s.",
		strings.ToLower(now.Format("3:04 PM")),
		now.Format("Monday, January 2"))
}

func (r *Registry) status(ctx context.Context, params map[string]any) (string, error) {
	kind := str(params, extract.KeyStatusType)
	if kind == "" {
		kind = "all"
	}

	var parts []string
	if kind == "all" || kind == "tasks" {
		tasks, err := r.store.RecentTasks(ctx, statusLimit)
		if err != nil {
			return "", err
		}
		parts = append(parts, countPhrase(len(tasks), "open task"))
	}
	if kind == "all" || kind == "reminders" {
		reminders, err := r.store.PendingReminders(ctx, statusLimit)
		if err != nil {
			return "", err
		}
		parts = append(parts, countPhrase(len(reminders), "pending reminder"))
	}
	if kind == "all" || kind == "timers" {
		timers, err := r.store.RunningTimers(ctx, r.now())
		if err != nil {
			return "", err
		}
		parts = append(parts, countPhrase(len(timers), "running timer"))
	}
	if kind == "all" || kind == "goals" {
		goals, err := r.store.ActiveGoals(ctx, statusLimit)
		if err != nil {
			return "", err
		}
		parts = append(parts, countPhrase(len(goals), "active goal"))
	}

	if len(parts) == 0 {
		return "I don't have anything to report for that.", nil
	}
	return "Here's where you stand: " + strings.Join(parts, ", ") + ".", nil
}

// countPhrase renders "2 open tasks" or "1 open task".
func countPhrase(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// spokenTime renders a timestamp the way a voice reply would say it.
func spokenTime(t, now time.Time) string {
	clock := strings.ToLower(t.Format("3:04 pm"))
	switch {
	case sameDay(t, now):
		return "today at " + clock
	case sameDay(t, now.AddDate(0, 0, 1)):
		return "tomorrow at " + clock
	case t.Sub(now) < 7*24*time.Hour && t.After(now):
		return "on " + t.Format("Monday") + " at " + clock
	default:
		return "on " + t.Format("January 2") + " at " + clock
	}
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// spokenDuration renders a second count as speech, e.g. "25 minutes".
func spokenDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%d second%s", seconds, pluralS(seconds))
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%d minute%s", minutes, pluralS(minutes))
	}
	hours := minutes / 60
	minutes %= 60
	if minutes == 0 {
		return fmt.Sprintf("%d hour%s", hours, pluralS(hours))
	}
	return fmt.Sprintf("%d hour%s and %d minute%s", hours, pluralS(hours), minutes, pluralS(minutes))
}

func pluralS(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// str reads a string parameter, returning "" when absent or mistyped.
func str(params map[string]any, key string) string {
	v, _ := params[key].(string)
	return v
}

// integer reads a numeric parameter, tolerating JSON-decoded float64 values.
func integer(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// timestamp reads an RFC3339 parameter, returning nil when absent or malformed.
func timestamp(params map[string]any, key string) *time.Time {
	raw := str(params, key)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}
