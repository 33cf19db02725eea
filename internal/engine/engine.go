// Package engine composes the interpretation pipeline: confirmation
// resolution, intent classification, validation, and command execution.
//
// The engine is the only caller that sequences the stages; each stage stays
// independently testable. One Engine serves many sessions concurrently, but
// all per-conversation state lives in the dialog.Session passed in.
package engine

import (
	"context"
	"log/slog"

	"hibiki/common/trace"
	"hibiki/internal/dialog"
	"hibiki/internal/intent"
	"hibiki/internal/validate"
)

// fallbackReply is spoken when anything in the pipeline fails unexpectedly.
const fallbackReply = "I'm sorry, I didn't understand that. Could you please rephrase?"

const cancelledReply = "Okay, I won't do that."

// Dispatcher executes a validated, confirmed command and returns the spoken
// acknowledgment. handlers.Registry satisfies this.
type Dispatcher interface {
	Execute(ctx context.Context, cmd *intent.Classification) (string, error)
}

// Reply is what the engine says back for one utterance.
type Reply struct {
	// Text is the spoken response.
	Text string
	// Executed is true when a command ran against the store, as opposed
	// to a clarification, confirmation prompt, or rejection.
	Executed bool
	// Intent is the classified intent, empty for confirmation responses.
	Intent intent.Intent
	// TraceID correlates log lines for this utterance.
	TraceID string
}

// Engine drives one utterance through classification, validation, the
// confirmation dialogue, and execution.
type Engine struct {
	provider  intent.Provider
	validator *validate.Validator
	dispatch  Dispatcher
}

// New creates an Engine.
func New(provider intent.Provider, validator *validate.Validator, dispatch Dispatcher) *Engine {
	return &Engine{provider: provider, validator: validator, dispatch: dispatch}
}

// HandleUtterance interprets one utterance within a conversation session and
// returns the reply to speak. It never returns an error; every failure mode
// degrades to an apologetic reply so the voice loop stays alive.
func (e *Engine) HandleUtterance(ctx context.Context, session *dialog.Session, utterance string) (reply Reply) {
	traceID := trace.GenerateID()
	ctx = trace.WithTraceID(ctx, traceID)
	reply.TraceID = traceID

	defer func() {
		if r := recover(); r != nil {
			slog.Error("utterance handling panicked", "trace_id", traceID, "panic", r)
			reply = Reply{Text: fallbackReply, TraceID: traceID}
		}
	}()

	// A pending confirmation claims the utterance only on a clear yes or
	// no. Anything else falls through and is treated as a new command.
	switch outcome, pending := session.Resolve(utterance); outcome {
	case dialog.OutcomeConfirmed:
		slog.Info("command confirmed", "trace_id", traceID, "intent", pending.Command.Intent, "confirmation_id", pending.ID)
		return e.execute(ctx, traceID, pending.Command)
	case dialog.OutcomeCancelled:
		slog.Info("command cancelled", "trace_id", traceID, "intent", pending.Command.Intent, "confirmation_id", pending.ID)
		return Reply{Text: cancelledReply, TraceID: traceID}
	}

	cmd, err := e.provider.Classify(ctx, utterance)
	if err != nil {
		slog.Error("classification failed", "trace_id", traceID, "error", err)
		cmd = &intent.Classification{
			Intent:     intent.Unknown,
			Parameters: map[string]any{"original_text": utterance},
			Confidence: intent.UnknownConfidence,
		}
	}
	reply.Intent = cmd.Intent
	slog.Debug("utterance classified", "trace_id", traceID, "intent", cmd.Intent, "confidence", cmd.Confidence)

	out := e.validator.Command(cmd.Intent, cmd.Parameters)
	switch out.Status {
	case validate.StatusValid:
		r := e.execute(ctx, traceID, cmd)
		r.Intent = cmd.Intent
		return r
	case validate.StatusNeedsConfirmation:
		p := session.Park(cmd)
		slog.Info("command parked for confirmation", "trace_id", traceID, "intent", cmd.Intent, "confirmation_id", p.ID)
		reply.Text = out.Prompt
		return reply
	case validate.StatusNeedsClarification:
		reply.Text = out.Prompt
		return reply
	default:
		slog.Info("command rejected", "trace_id", traceID, "intent", cmd.Intent, "errors", out.Errors)
		reply.Text = out.Prompt
		return reply
	}
}

// execute runs a command through the dispatcher, converting failures into an
// apology rather than surfacing them to the user.
func (e *Engine) execute(ctx context.Context, traceID string, cmd *intent.Classification) Reply {
	text, err := e.dispatch.Execute(ctx, cmd)
	if err != nil {
		slog.Error("command execution failed", "trace_id", traceID, "intent", cmd.Intent, "error", err)
		return Reply{
			Text:    "I'm sorry, something went wrong while doing that. Please try again.",
			Intent:  cmd.Intent,
			TraceID: traceID,
		}
	}
	return Reply{Text: text, Executed: true, Intent: cmd.Intent, TraceID: traceID}
}
