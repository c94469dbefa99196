package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorsAreComplete(t *testing.T) {
	ds := Descriptors()
	require.Len(t, ds, 2)

	get, ok := Lookup(GetCalendarEvents)
	require.True(t, ok)
	assert.Empty(t, get.Required)
	assert.Contains(t, get.Parameters, "date")

	create, ok := Lookup(CreateCalendarEvent)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"summary", "startDateTime", "endDateTime"}, create.Required)
	assert.Contains(t, create.Parameters, "description")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(GetCalendarEvents, nil))
	assert.NoError(t, Validate(GetCalendarEvents, map[string]any{"date": "tomorrow"}))

	err := Validate("delete_all_events", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)

	err = Validate(CreateCalendarEvent, map[string]any{
		"summary":       "Team meeting",
		"startDateTime": "next Tuesday at 2pm",
	})
	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "endDateTime", missing.Field)

	// Empty strings do not satisfy required presence.
	err = Validate(CreateCalendarEvent, map[string]any{
		"summary":       "",
		"startDateTime": "next Tuesday at 2pm",
		"endDateTime":   "next Tuesday at 3pm",
	})
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "summary", missing.Field)

	assert.NoError(t, Validate(CreateCalendarEvent, map[string]any{
		"summary":       "Team meeting",
		"startDateTime": "next Tuesday at 2pm",
		"endDateTime":   "next Tuesday at 3pm",
	}))
}
