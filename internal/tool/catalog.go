// Package tool defines the static catalog of operations the model may invoke.
package tool

import (
	"errors"
	"fmt"
)

// Tool names understood by the dispatcher.
const (
	GetCalendarEvents   = "get_calendar_events"
	CreateCalendarEvent = "create_calendar_event"
)

// ErrUnknownTool is returned when a requested tool is not in the catalog.
var ErrUnknownTool = errors.New("unknown tool")

// MissingFieldError reports a required argument absent from a tool call.
type MissingFieldError struct {
	Tool  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("tool %s: missing required field %q", e.Tool, e.Field)
}

// Param describes one named tool parameter.
type Param struct {
	Type        string
	Description string
}

// Descriptor describes one invocable tool: name, purpose and argument schema.
type Descriptor struct {
	Name        string
	Description string
	Parameters  map[string]Param
	Required    []string
}

var descriptors = []Descriptor{
	{
		Name:        GetCalendarEvents,
		Description: "Get a list of events from the user's Google Calendar for a specific day.",
		Parameters: map[string]Param{
			"date": {
				Type:        "string",
				Description: "The date to get events for, in YYYY-MM-DD format. If not provided, defaults to today.",
			},
		},
	},
	{
		Name:        CreateCalendarEvent,
		Description: "Create a new event in the user's Google Calendar.",
		Parameters: map[string]Param{
			"summary": {
				Type:        "string",
				Description: "The title/summary of the event.",
			},
			"description": {
				Type:        "string",
				Description: "Optional description of the event.",
			},
			"startDateTime": {
				Type:        "string",
				Description: "Start date and time of the event in ISO format or natural language (e.g., '2023-12-15T15:00:00' or 'next Monday at 3pm').",
			},
			"endDateTime": {
				Type:        "string",
				Description: "End date and time of the event in ISO format or natural language (e.g., '2023-12-15T17:00:00' or 'next Monday at 5pm').",
			},
		},
		Required: []string{"summary", "startDateTime", "endDateTime"},
	},
}

// Descriptors returns the fixed tool catalog.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// Lookup returns the descriptor for a tool name.
func Lookup(name string) (Descriptor, bool) {
	for _, d := range descriptors {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Validate checks required-field presence for a tool call. It performs no
// deep type validation; downstream services reject malformed values.
func Validate(name string, args map[string]any) error {
	d, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	for _, field := range d.Required {
		v, present := args[field]
		if !present {
			return &MissingFieldError{Tool: name, Field: field}
		}
		if s, isString := v.(string); isString && s == "" {
			return &MissingFieldError{Tool: name, Field: field}
		}
	}
	return nil
}
