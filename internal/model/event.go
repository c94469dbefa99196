package model

import (
	"encoding/json"
	"time"
)

// EventSummary is the slice of a calendar event the assistant works with.
type EventSummary struct {
	ID          string `json:"id,omitempty"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start,omitempty"`
	End         string `json:"end,omitempty"`
	Location    string `json:"location,omitempty"`
	Status      string `json:"status,omitempty"`
	HTMLLink    string `json:"htmlLink,omitempty"`
}

// ListEventsResult is the tool result for get_calendar_events. Transport
// failures are reported through Error, never raised. Events is non-nil on
// success so an empty day still reports an events key.
type ListEventsResult struct {
	Events []EventSummary `json:"events"`
	Error  string         `json:"error,omitempty"`
}

// CreateEventResult is the tool result for create_calendar_event.
type CreateEventResult struct {
	Success bool          `json:"success"`
	Event   *EventSummary `json:"event,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// ToolResultMap converts a tool result value into the map shape the
// function-calling protocol carries in a functionResponse part.
func ToolResultMap(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{"error": err.Error()}
	}
	for k, v := range m {
		if v == nil {
			delete(m, k)
		}
	}
	return m
}

// TurnEventType classifies operator-facing turn events.
type TurnEventType string

const (
	TurnEventStarted      TurnEventType = "turn_started"
	TurnEventStateChanged TurnEventType = "state_changed"
	TurnEventToolCalled   TurnEventType = "tool_called"
	TurnEventCompleted    TurnEventType = "turn_completed"
	TurnEventFailed       TurnEventType = "turn_failed"
)

// TurnEvent records one step of a turn's lifecycle. Failures carry the full
// error detail here; the user-visible message never does.
type TurnEvent struct {
	ID        string        `json:"id"`
	SessionID string        `json:"session_id"`
	Type      TurnEventType `json:"type"`
	State     string        `json:"state,omitempty"`
	Tool      string        `json:"tool,omitempty"`
	Detail    string        `json:"detail,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}
