package extract_test

import (
	"testing"
	"time"

	"hibiki/internal/extract"
	"hibiki/internal/intent"
)

func TestParameters_AlwaysCarriesOriginalText(t *testing.T) {
	for _, name := range append(intent.All, intent.Unknown) {
		params := extract.Parameters(name, "some utterance", anchor)
		if got := params[extract.KeyOriginalText]; got != "some utterance" {
			t.Errorf("%s: original_text = %v, want the verbatim utterance", name, got)
		}
	}
}

func TestParameters_CreateTask(t *testing.T) {
	params := extract.Parameters(intent.CreateTask,
		"create a task to finish the report tomorrow high priority", anchor)

	if got := params[extract.KeyDescription]; got != "finish the report" {
		t.Errorf("description = %v, want 'finish the report'", got)
	}
	if got := params[extract.KeyDueDate]; got != anchor.AddDate(0, 0, 1).Format(time.RFC3339) {
		t.Errorf("due_date = %v, want tomorrow", got)
	}
	if got := params[extract.KeyPriority]; got != 3 {
		t.Errorf("priority = %v, want 3", got)
	}
	if _, ok := params[extract.KeyNeedsClarification]; ok {
		t.Error("complete task should not carry a clarification marker")
	}
}

func TestParameters_CreateTaskWithoutDescription(t *testing.T) {
	params := extract.Parameters(intent.CreateTask, "create task", anchor)

	if got := params[extract.KeyDescription]; got != extract.SentinelDescription {
		t.Errorf("description = %v, want the sentinel placeholder", got)
	}
	if got := params[extract.KeyNeedsClarification]; got != extract.KeyDescription {
		t.Errorf("needs_clarification = %v, want %q", got, extract.KeyDescription)
	}
	if _, ok := params[extract.KeyDueDate]; ok {
		t.Error("no due date should be extracted from a bare trigger")
	}
}

func TestParameters_SetReminder(t *testing.T) {
	params := extract.Parameters(intent.SetReminder,
		"remind me to call mom in 30 minutes", anchor)

	if got := params[extract.KeyDescription]; got != "call mom" {
		t.Errorf("description = %v, want 'call mom'", got)
	}
	want := anchor.Add(30 * time.Minute).Format(time.RFC3339)
	if got := params[extract.KeyReminderTime]; got != want {
		t.Errorf("reminder_time = %v, want %v", got, want)
	}
}

func TestParameters_SetReminderDefaultsToOneHour(t *testing.T) {
	params := extract.Parameters(intent.SetReminder, "remind me to stretch", anchor)

	want := anchor.Add(time.Hour).Format(time.RFC3339)
	if got := params[extract.KeyReminderTime]; got != want {
		t.Errorf("reminder_time = %v, want the one-hour default %v", got, want)
	}
	if got := params[extract.KeyDescription]; got != "stretch" {
		t.Errorf("description = %v, want 'stretch'", got)
	}
}

func TestParameters_StartTimer(t *testing.T) {
	params := extract.Parameters(intent.StartTimer, "start a timer for 5 minutes", anchor)

	if got := params[extract.KeyDurationSeconds]; got != 300 {
		t.Errorf("duration_seconds = %v, want 300", got)
	}
	if name, ok := params[extract.KeyName]; ok {
		t.Errorf("a duration-only timer should stay unnamed, got name %v", name)
	}
}

func TestParameters_StartTimerDefaultsToFocusSession(t *testing.T) {
	params := extract.Parameters(intent.StartTimer, "start a timer", anchor)

	if got := params[extract.KeyDurationSeconds]; got != extract.DefaultTimerSeconds {
		t.Errorf("duration_seconds = %v, want the %d default", got, extract.DefaultTimerSeconds)
	}
	if name, ok := params[extract.KeyName]; ok {
		t.Errorf("a bare trigger should stay unnamed, got name %v", name)
	}
}

func TestParameters_TakeNote(t *testing.T) {
	params := extract.Parameters(intent.TakeNote, "take note Buy eggs and bread", anchor)

	// Note content keeps the user's casing.
	if got := params[extract.KeyContent]; got != "Buy eggs and bread" {
		t.Errorf("content = %v, want 'Buy eggs and bread'", got)
	}
}

func TestParameters_TakeNoteWithoutContent(t *testing.T) {
	for _, text := range []string{"take note", "take a note", "write down"} {
		params := extract.Parameters(intent.TakeNote, text, anchor)

		if content, ok := params[extract.KeyContent]; ok {
			t.Errorf("Parameters(%q): a bare trigger should not produce content, got %v", text, content)
		}
		if got := params[extract.KeyNeedsClarification]; got != extract.KeyContent {
			t.Errorf("Parameters(%q): needs_clarification = %v, want %q", text, got, extract.KeyContent)
		}
	}
}

func TestParameters_CreateGoal(t *testing.T) {
	params := extract.Parameters(intent.CreateGoal,
		"create a goal to run a marathon next month", anchor)

	if got := params[extract.KeyName]; got != "run a marathon next month" {
		t.Errorf("name = %v, want the goal text", got)
	}
	want := anchor.AddDate(0, 0, 30).Format(time.RFC3339)
	if got := params[extract.KeyTargetDate]; got != want {
		t.Errorf("target_date = %v, want %v", got, want)
	}
}

func TestParameters_GetStatus(t *testing.T) {
	tests := []struct {
		utterance string
		want      string
	}{
		{"how are my tasks looking", "tasks"},
		{"show me my goals", "goals"},
		{"any reminders coming up", "reminders"},
		{"are any timers running", "timers"},
		{"how am i doing", "all"},
	}
	for _, tc := range tests {
		params := extract.Parameters(intent.GetStatus, tc.utterance, anchor)
		if got := params[extract.KeyStatusType]; got != tc.want {
			t.Errorf("statusType(%q) = %v, want %q", tc.utterance, got, tc.want)
		}
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		text string
		want int
		ok   bool
	}{
		{"5 minutes", 300, true},
		{"90 seconds", 90, true},
		{"2 hours", 7200, true},
		{"1 hr", 3600, true},
		{"1 day", 86400, true},
		{"10 mins", 600, true},
		{"a little while", 0, false},
		{"minutes", 0, false},
	}
	for _, tc := range tests {
		got, ok := extract.Duration(tc.text)
		if ok != tc.ok || got != tc.want {
			t.Errorf("Duration(%q) = (%d, %v), want (%d, %v)", tc.text, got, ok, tc.want, tc.ok)
		}
	}
}

func TestPriority(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"this is urgent", 3},
		{"high priority please", 3},
		{"normal priority", 2},
		{"low priority, can wait", 1},
		{"just a regular thing", 0},
		// The highest urgency word wins when several appear.
		{"low effort but critical", 3},
	}
	for _, tc := range tests {
		if got := extract.Priority(tc.text); got != tc.want {
			t.Errorf("Priority(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestDescription_StripsTimeAndPriorityNoise(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"remind me to call mom in 30 minutes", "call mom"},
		{"create task to water the plants at 6 pm", "water the plants"},
		{"add a task to submit the form next friday", "submit the form"},
		{"new task review the budget tomorrow high priority", "review the budget"},
		{"remind me to take medicine at 8:30 am", "take medicine"},
		// Bare triggers leave nothing behind.
		{"create task", extract.SentinelDescription},
		{"add a task", extract.SentinelDescription},
		{"start a timer", extract.SentinelDescription},
	}
	for _, tc := range tests {
		if got := extract.Description(tc.text); got != tc.want {
			t.Errorf("Description(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}
