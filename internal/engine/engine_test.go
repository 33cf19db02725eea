package engine_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"hibiki/internal/dialog"
	"hibiki/internal/engine"
	"hibiki/internal/intent"
	"hibiki/internal/validate"
)

var anchor = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// recordingDispatcher is a Dispatcher stub that records every executed
// command and replies with a fixed acknowledgment.
type recordingDispatcher struct {
	executed []*intent.Classification
	err      error
}

func (d *recordingDispatcher) Execute(_ context.Context, cmd *intent.Classification) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	d.executed = append(d.executed, cmd)
	return "done: " + string(cmd.Intent), nil
}

// failingProvider always returns an error, for exercising the degraded path.
type failingProvider struct{}

func (failingProvider) Classify(context.Context, string) (*intent.Classification, error) {
	return nil, errors.New("provider offline")
}

func newEngine(d engine.Dispatcher) *engine.Engine {
	clock := func() time.Time { return anchor }
	provider := engine.NewKeywordProviderAt(nil, clock)
	return engine.New(provider, validate.NewAt(clock), d)
}

func TestHandleUtterance_ReadOnlyCommandExecutesImmediately(t *testing.T) {
	d := &recordingDispatcher{}
	eng := newEngine(d)
	session := dialog.NewSession(0)

	reply := eng.HandleUtterance(context.Background(), session, "what time is it")

	if !reply.Executed {
		t.Fatal("read-only commands should execute without confirmation")
	}
	if reply.Intent != intent.GetTime {
		t.Errorf("intent = %s, want %s", reply.Intent, intent.GetTime)
	}
	if len(d.executed) != 1 || d.executed[0].Intent != intent.GetTime {
		t.Errorf("dispatcher saw %v, want one get_time execution", d.executed)
	}
	if reply.TraceID == "" {
		t.Error("replies should carry a trace ID")
	}
}

func TestHandleUtterance_ConfirmationRoundTrip(t *testing.T) {
	d := &recordingDispatcher{}
	eng := newEngine(d)
	session := dialog.NewSession(0)

	reply := eng.HandleUtterance(context.Background(), session,
		"remind me to call mom in 30 minutes")

	if reply.Executed {
		t.Fatal("side-effecting commands must not execute before confirmation")
	}
	if reply.Intent != intent.SetReminder {
		t.Fatalf("intent = %s, want %s", reply.Intent, intent.SetReminder)
	}
	if !strings.Contains(reply.Text, "call mom") {
		t.Errorf("confirmation prompt %q should restate the reminder", reply.Text)
	}
	if got := session.PendingCount(); got != 1 {
		t.Fatalf("PendingCount = %d, want 1", got)
	}

	confirm := eng.HandleUtterance(context.Background(), session, "yes")
	if !confirm.Executed {
		t.Fatal("an affirmative answer should execute the parked command")
	}
	if len(d.executed) != 1 || d.executed[0].Intent != intent.SetReminder {
		t.Errorf("dispatcher saw %v, want the parked reminder", d.executed)
	}
	if got := session.PendingCount(); got != 0 {
		t.Errorf("PendingCount = %d, want 0 after resolution", got)
	}
}

func TestHandleUtterance_Cancellation(t *testing.T) {
	d := &recordingDispatcher{}
	eng := newEngine(d)
	session := dialog.NewSession(0)

	eng.HandleUtterance(context.Background(), session, "take note buy milk")
	reply := eng.HandleUtterance(context.Background(), session, "no, never mind")

	if reply.Executed {
		t.Fatal("a cancellation must not execute anything")
	}
	if len(d.executed) != 0 {
		t.Errorf("dispatcher saw %v, want no executions", d.executed)
	}
	if got := session.PendingCount(); got != 0 {
		t.Errorf("PendingCount = %d, want 0 after cancellation", got)
	}
}

func TestHandleUtterance_AmbiguousAnswerBecomesNewCommand(t *testing.T) {
	d := &recordingDispatcher{}
	eng := newEngine(d)
	session := dialog.NewSession(0)

	eng.HandleUtterance(context.Background(), session, "start a timer for 5 minutes")
	if got := session.PendingCount(); got != 1 {
		t.Fatalf("PendingCount = %d, want 1", got)
	}

	// Neither a yes nor a no: handled as a fresh command, and the parked
	// timer stays parked.
	reply := eng.HandleUtterance(context.Background(), session, "what time is it")

	if !reply.Executed || reply.Intent != intent.GetTime {
		t.Errorf("reply = %+v, want an executed get_time", reply)
	}
	if got := session.PendingCount(); got != 1 {
		t.Errorf("PendingCount = %d, want 1 (ambiguous turn must not consume the record)", got)
	}
}

func TestHandleUtterance_UnknownUtteranceAsksToRephrase(t *testing.T) {
	d := &recordingDispatcher{}
	eng := newEngine(d)
	session := dialog.NewSession(0)

	reply := eng.HandleUtterance(context.Background(), session, "the weather is nice")

	if reply.Executed {
		t.Fatal("unclassifiable utterances must not execute")
	}
	if !strings.Contains(reply.Text, "rephrase") {
		t.Errorf("reply %q should ask the user to rephrase", reply.Text)
	}
}

func TestHandleUtterance_IncompleteCommandAsksForTheMissingField(t *testing.T) {
	d := &recordingDispatcher{}
	eng := newEngine(d)
	session := dialog.NewSession(0)

	reply := eng.HandleUtterance(context.Background(), session, "create task")

	if reply.Executed {
		t.Fatal("an incomplete command must not execute")
	}
	if !strings.Contains(reply.Text, "What should the task be?") {
		t.Errorf("reply %q should ask for the missing description", reply.Text)
	}
	if got := session.PendingCount(); got != 0 {
		t.Errorf("PendingCount = %d, want 0 (clarifications are not parked)", got)
	}
}

func TestHandleUtterance_ProviderFailureDegradesGracefully(t *testing.T) {
	d := &recordingDispatcher{}
	clock := func() time.Time { return anchor }
	eng := engine.New(failingProvider{}, validate.NewAt(clock), d)
	session := dialog.NewSession(0)

	reply := eng.HandleUtterance(context.Background(), session, "hello")

	if reply.Executed {
		t.Fatal("a classification failure must not execute anything")
	}
	if reply.Intent != intent.Unknown {
		t.Errorf("intent = %s, want %s", reply.Intent, intent.Unknown)
	}
	if !strings.Contains(reply.Text, "rephrase") {
		t.Errorf("reply %q should be the generic rephrase prompt", reply.Text)
	}
}

func TestHandleUtterance_ExecutionFailureApologizes(t *testing.T) {
	d := &recordingDispatcher{err: errors.New("database on fire")}
	eng := newEngine(d)
	session := dialog.NewSession(0)

	reply := eng.HandleUtterance(context.Background(), session, "what time is it")

	if reply.Executed {
		t.Fatal("a failed execution must not be reported as executed")
	}
	if !strings.Contains(reply.Text, "something went wrong") {
		t.Errorf("reply %q should apologize for the failure", reply.Text)
	}
}

func TestFallbackProvider_UsesSecondaryOnError(t *testing.T) {
	clock := func() time.Time { return anchor }
	keyword := engine.NewKeywordProviderAt(nil, clock)
	provider := engine.NewFallbackProvider(failingProvider{}, keyword)

	cmd, err := provider.Classify(context.Background(), "what time is it")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cmd.Intent != intent.GetTime {
		t.Errorf("intent = %s, want %s from the keyword fallback", cmd.Intent, intent.GetTime)
	}
}

func TestKeywordProvider_FillsParameters(t *testing.T) {
	clock := func() time.Time { return anchor }
	provider := engine.NewKeywordProviderAt(nil, clock)

	cmd, err := provider.Classify(context.Background(), "remind me to call mom in 30 minutes")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cmd.Intent != intent.SetReminder {
		t.Fatalf("intent = %s, want %s", cmd.Intent, intent.SetReminder)
	}
	if got := cmd.Parameters["description"]; got != "call mom" {
		t.Errorf("description = %v, want 'call mom'", got)
	}
	want := anchor.Add(30 * time.Minute).Format(time.RFC3339)
	if got := cmd.Parameters["reminder_time"]; got != want {
		t.Errorf("reminder_time = %v, want %v", got, want)
	}
}
