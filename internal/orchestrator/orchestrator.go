// Package orchestrator implements the conversation turn state machine: it
// owns the ordered history, drives the model request/response cycle, and
// dispatches requested tool calls to the calendar gateway.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/schedulr-ai/calendar-assistant/internal/calendar"
	"github.com/schedulr-ai/calendar-assistant/internal/llm"
	"github.com/schedulr-ai/calendar-assistant/internal/model"
	"github.com/schedulr-ai/calendar-assistant/internal/timeparse"
	"github.com/schedulr-ai/calendar-assistant/internal/tool"
	"github.com/schedulr-ai/calendar-assistant/pkg/logger"
	"github.com/schedulr-ai/calendar-assistant/pkg/metrics"
)

// State is the orchestrator's turn-cycle state.
type State string

const (
	StateIdle               State = "idle"
	StateAwaitingModel      State = "awaiting_model"
	StateExecutingTool      State = "executing_tool"
	StateAwaitingFinalModel State = "awaiting_final_model"
)

var (
	// ErrEmptyInput reports a blank submission; it is a no-op, nothing is
	// appended to history.
	ErrEmptyInput = errors.New("empty input")

	// ErrTurnInProgress reports a submission while another turn is in
	// flight. Turns are strictly serialized, never interleaved.
	ErrTurnInProgress = errors.New("a turn is already in progress")
)

const (
	fallbackText = "No response received"
	apologyText  = "Sorry, I encountered an error. Please try again."
)

// CalendarService is the tool dispatch surface. Both operations recover
// transport failures into result values, so dispatch never raises.
type CalendarService interface {
	ListEvents(ctx context.Context, day string) *model.ListEventsResult
	CreateEvent(ctx context.Context, in calendar.CreateInput) *model.CreateEventResult
}

// Observer receives turn lifecycle events (state changes, tool dispatches,
// completions and failures). May be nil.
type Observer func(event model.TurnEvent)

// Orchestrator runs one session's conversation. All collaborators are
// injected; each session owns its own instance and its own history.
type Orchestrator struct {
	sessionID string
	llm       llm.Client
	cal       CalendarService
	tools     []tool.Descriptor
	clock     func() time.Time
	logger    *logger.Logger
	observer  Observer

	// turnMu serializes turns; Reset takes it too, so a reset waits out
	// any in-flight turn instead of racing its history writes.
	turnMu sync.Mutex

	mu      sync.RWMutex
	state   State
	history []model.ConversationMessage
}

// New creates an orchestrator for one session. A nil clock means the wall
// clock.
func New(sessionID string, client llm.Client, cal CalendarService, clock func() time.Time, log *logger.Logger, observer Observer) *Orchestrator {
	if clock == nil {
		clock = time.Now
	}
	return &Orchestrator{
		sessionID: sessionID,
		llm:       client,
		cal:       cal,
		tools:     tool.Descriptors(),
		clock:     clock,
		logger:    log,
		observer:  observer,
		state:     StateIdle,
	}
}

// State returns the current turn-cycle state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// History returns a copy of the conversation history.
func (o *Orchestrator) History() []model.ConversationMessage {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]model.ConversationMessage, len(o.history))
	copy(out, o.history)
	return out
}

// Reset clears the conversation history. It waits for any in-flight turn.
func (o *Orchestrator) Reset() {
	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	o.mu.Lock()
	o.history = nil
	o.mu.Unlock()

	o.logger.Info("session history reset", zap.String("session_id", o.sessionID))
}

// SubmitUserTurn runs one full turn: append the user message, call the
// model, dispatch at most one requested tool call, and return the final
// user-visible text.
//
// Failure contract: a model failure at either step returns the fixed
// apology together with the underlying error, leaves history grown by
// exactly the user message, and returns the orchestrator to Idle.
func (o *Orchestrator) SubmitUserTurn(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyInput
	}

	if !o.turnMu.TryLock() {
		metrics.TurnsRejectedTotal.Inc()
		return "", ErrTurnInProgress
	}
	defer o.turnMu.Unlock()

	started := time.Now()
	o.emit(model.TurnEventStarted, "", text)

	o.appendHistory(model.NewTextMessage(model.RoleUser, text))
	o.setState(StateAwaitingModel)
	defer o.setState(StateIdle)

	resp, err := o.llm.Generate(ctx, &llm.GenerateRequest{
		Messages: o.History(),
		Tools:    o.tools,
	})
	if err != nil {
		return o.failTurn(started, fmt.Errorf("model call failed: %w", err))
	}

	if len(resp.FunctionCalls) == 0 {
		reply := orFallback(resp.Text)
		o.appendHistory(model.NewTextMessage(model.RoleModel, reply))
		o.finishTurn(started, reply)
		return reply, nil
	}

	if len(resp.FunctionCalls) > 1 {
		// Only the first requested call is processed.
		o.logger.Warn("dropping additional simultaneous tool calls",
			zap.String("session_id", o.sessionID),
			zap.Int("dropped", len(resp.FunctionCalls)-1))
	}
	call := resp.FunctionCalls[0]

	if _, known := tool.Lookup(call.Name); !known {
		// Unknown tool: skip dispatch without touching history beyond
		// the model's own text.
		o.logger.Warn("model requested unknown tool",
			zap.String("session_id", o.sessionID),
			zap.String("tool", call.Name))
		metrics.RecordToolCall(call.Name, "unknown")
		o.emit(model.TurnEventToolCalled, call.Name, "unknown tool, dispatch skipped")

		reply := orFallback(resp.Text)
		o.appendHistory(model.NewTextMessage(model.RoleModel, reply))
		o.finishTurn(started, reply)
		return reply, nil
	}

	o.setState(StateExecutingTool)
	result := o.dispatch(ctx, &call)
	o.emit(model.TurnEventToolCalled, call.Name, "")

	// The call/response pair is staged and only committed together with
	// the final model text, so a failed final call cannot strand an
	// unanswered pair in history.
	pair := []model.ConversationMessage{
		model.NewFunctionCallMessage(call),
		model.NewFunctionResponseMessage(call.Name, result),
	}

	o.setState(StateAwaitingFinalModel)
	finalResp, err := o.llm.Generate(ctx, &llm.GenerateRequest{
		Messages: append(o.History(), pair...),
		Tools:    o.tools,
	})
	if err != nil {
		return o.failTurn(started, fmt.Errorf("final model call failed: %w", err))
	}

	reply := orFallback(finalResp.Text)
	o.appendHistory(pair...)
	o.appendHistory(model.NewTextMessage(model.RoleModel, reply))
	o.finishTurn(started, reply)
	return reply, nil
}

// dispatch normalizes the call's date arguments against the reference
// clock and executes the matching calendar operation. Validation failures
// are surfaced the same way as transport failures: as an error result.
func (o *Orchestrator) dispatch(ctx context.Context, call *model.FunctionCall) map[string]any {
	if err := tool.Validate(call.Name, call.Args); err != nil {
		o.logger.Warn("tool call failed validation",
			zap.String("session_id", o.sessionID),
			zap.String("tool", call.Name),
			zap.Error(err))
		metrics.RecordToolCall(call.Name, "invalid")
		return map[string]any{"error": err.Error()}
	}

	ref := o.clock()

	switch call.Name {
	case tool.GetCalendarEvents:
		day := ""
		if raw, ok := call.Args["date"].(string); ok && raw != "" {
			day = timeparse.ResolveDate(raw, ref).Format("2006-01-02")
			call.Args["date"] = day
		}
		result := o.cal.ListEvents(ctx, day)
		metrics.RecordToolCall(call.Name, toolStatus(result.Error))
		return model.ToolResultMap(result)

	case tool.CreateCalendarEvent:
		if raw, ok := call.Args["startDateTime"].(string); ok && raw != "" {
			call.Args["startDateTime"] = timeparse.ResolveDateTime(raw, ref).Format(time.RFC3339)
		}
		if raw, ok := call.Args["endDateTime"].(string); ok && raw != "" {
			call.Args["endDateTime"] = timeparse.ResolveDateTime(raw, ref).Format(time.RFC3339)
		}
		result := o.cal.CreateEvent(ctx, calendar.CreateInput{
			Summary:       stringArg(call.Args, "summary"),
			Description:   stringArg(call.Args, "description"),
			StartDateTime: stringArg(call.Args, "startDateTime"),
			EndDateTime:   stringArg(call.Args, "endDateTime"),
		})
		metrics.RecordToolCall(call.Name, toolStatus(result.Error))
		return model.ToolResultMap(result)
	}

	// Unreachable: callers check the catalog first.
	return map[string]any{"error": tool.ErrUnknownTool.Error()}
}

func (o *Orchestrator) failTurn(started time.Time, err error) (string, error) {
	o.logger.Error("turn failed",
		zap.String("session_id", o.sessionID),
		zap.Error(err))
	metrics.RecordTurn("error", time.Since(started).Seconds())
	o.emit(model.TurnEventFailed, "", err.Error())
	return apologyText, err
}

func (o *Orchestrator) finishTurn(started time.Time, reply string) {
	metrics.RecordTurn("ok", time.Since(started).Seconds())
	o.emit(model.TurnEventCompleted, "", reply)
}

func (o *Orchestrator) appendHistory(msgs ...model.ConversationMessage) {
	o.mu.Lock()
	o.history = append(o.history, msgs...)
	o.mu.Unlock()
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	o.emit(model.TurnEventStateChanged, "", "")
}

func (o *Orchestrator) emit(eventType model.TurnEventType, toolName, detail string) {
	if o.observer == nil {
		return
	}
	o.observer(model.TurnEvent{
		ID:        uuid.New().String(),
		SessionID: o.sessionID,
		Type:      eventType,
		State:     string(o.State()),
		Tool:      toolName,
		Detail:    detail,
		CreatedAt: time.Now(),
	})
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func orFallback(text string) string {
	if strings.TrimSpace(text) == "" {
		return fallbackText
	}
	return text
}

func toolStatus(errMessage string) string {
	if errMessage != "" {
		return "error"
	}
	return "ok"
}
