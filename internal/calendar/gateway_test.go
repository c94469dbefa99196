package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedulr-ai/calendar-assistant/internal/model"
	"github.com/schedulr-ai/calendar-assistant/pkg/logger"
)

type fakeAPI struct {
	lastList   *ListQuery
	lastInsert *EventInput
	listResult []model.EventSummary
	listErr    error
	insertErr  error
	inserts    int
}

func (f *fakeAPI) List(_ context.Context, q ListQuery) ([]model.EventSummary, error) {
	f.lastList = &q
	return f.listResult, f.listErr
}

func (f *fakeAPI) Insert(_ context.Context, in *EventInput) (*model.EventSummary, error) {
	f.lastInsert = in
	f.inserts++
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	return &model.EventSummary{
		ID:      "evt-1",
		Summary: in.Summary,
		Start:   in.Start.Format(time.RFC3339),
		End:     in.End.Format(time.RFC3339),
	}, nil
}

func testGateway(api API) *Gateway {
	clock := func() time.Time {
		return time.Date(2025, time.June, 27, 10, 0, 0, 0, time.UTC)
	}
	log, _ := logger.New("error")
	return NewGateway(api, clock, time.UTC, log)
}

func TestListEventsDayWindow(t *testing.T) {
	api := &fakeAPI{}
	g := testGateway(api)

	result := g.ListEvents(context.Background(), "2025-06-27")
	require.Empty(t, result.Error)

	require.NotNil(t, api.lastList)
	assert.Equal(t, "primary", api.lastList.CalendarID)
	assert.Equal(t, time.Date(2025, time.June, 27, 0, 0, 0, 0, time.UTC), api.lastList.TimeMin)
	assert.Equal(t, time.Date(2025, time.June, 27, 23, 59, 59, 999000000, time.UTC), api.lastList.TimeMax)
}

func TestListEventsDayWindowAcrossDSTTransitions(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	api := &fakeAPI{}
	clock := func() time.Time {
		return time.Date(2025, time.March, 9, 12, 0, 0, 0, loc)
	}
	log, _ := logger.New("error")
	g := NewGateway(api, clock, loc, log)

	// Spring forward: the local day is only 23 hours long, but the upper
	// bound must stay on the same calendar day.
	result := g.ListEvents(context.Background(), "2025-03-09")
	require.Empty(t, result.Error)
	require.NotNil(t, api.lastList)
	assert.Equal(t, time.Date(2025, time.March, 9, 0, 0, 0, 0, loc), api.lastList.TimeMin)
	assert.Equal(t, time.Date(2025, time.March, 9, 23, 59, 59, 999000000, loc), api.lastList.TimeMax)

	// Fall back: the local day is 25 hours long and the last hour of
	// events must still fall inside the window.
	api.lastList = nil
	result = g.ListEvents(context.Background(), "2025-11-02")
	require.Empty(t, result.Error)
	require.NotNil(t, api.lastList)
	assert.Equal(t, time.Date(2025, time.November, 2, 0, 0, 0, 0, loc), api.lastList.TimeMin)
	assert.Equal(t, time.Date(2025, time.November, 2, 23, 59, 59, 999000000, loc), api.lastList.TimeMax)
}

func TestListEventsDefaultsToToday(t *testing.T) {
	api := &fakeAPI{}
	g := testGateway(api)

	g.ListEvents(context.Background(), "")
	require.NotNil(t, api.lastList)
	assert.Equal(t, 27, api.lastList.TimeMin.Day())

	// An unparseable day also falls back to today rather than failing.
	api.lastList = nil
	result := g.ListEvents(context.Background(), "someday")
	require.NotNil(t, api.lastList)
	assert.Equal(t, 27, api.lastList.TimeMin.Day())
	assert.Empty(t, result.Error)
}

func TestListEventsEmptyDayHasEventsKey(t *testing.T) {
	g := testGateway(&fakeAPI{})

	result := g.ListEvents(context.Background(), "2025-06-28")
	require.NotNil(t, result.Events)
	assert.Empty(t, result.Events)

	m := model.ToolResultMap(result)
	assert.Contains(t, m, "events")
	assert.NotContains(t, m, "error")
}

func TestListEventsErrorIsRecovered(t *testing.T) {
	g := testGateway(&fakeAPI{listErr: errors.New("503 backend unavailable")})

	result := g.ListEvents(context.Background(), "2025-06-27")
	assert.Equal(t, "Failed to fetch calendar events.", result.Error)
	assert.Empty(t, result.Events)
}

func TestCreateEvent(t *testing.T) {
	api := &fakeAPI{}
	g := testGateway(api)

	result := g.CreateEvent(context.Background(), CreateInput{
		Summary:       "Team meeting",
		Description:   "Weekly sync",
		StartDateTime: "2025-07-01T14:00:00Z",
		EndDateTime:   "2025-07-01T15:00:00Z",
	})

	require.True(t, result.Success)
	require.NotNil(t, result.Event)
	assert.Equal(t, "Team meeting", result.Event.Summary)

	require.NotNil(t, api.lastInsert)
	assert.Equal(t, "primary", api.lastInsert.CalendarID)
	assert.Equal(t, "UTC", api.lastInsert.TimeZone)
	assert.Equal(t, 14, api.lastInsert.Start.Hour())
	assert.Equal(t, 15, api.lastInsert.End.Hour())
}

func TestCreateEventAcceptsZonelessISO(t *testing.T) {
	api := &fakeAPI{}
	g := testGateway(api)

	result := g.CreateEvent(context.Background(), CreateInput{
		Summary:       "Dentist",
		StartDateTime: "2025-07-01T09:00:00",
		EndDateTime:   "2025-07-01T09:30:00",
	})

	require.True(t, result.Success)
	assert.Equal(t, time.UTC, api.lastInsert.Start.Location())
}

func TestCreateEventFailures(t *testing.T) {
	api := &fakeAPI{insertErr: errors.New("403 insufficient scope")}
	g := testGateway(api)

	result := g.CreateEvent(context.Background(), CreateInput{
		Summary:       "Team meeting",
		StartDateTime: "2025-07-01T14:00:00Z",
		EndDateTime:   "2025-07-01T15:00:00Z",
	})
	assert.False(t, result.Success)
	assert.Equal(t, "Failed to create calendar event.", result.Error)

	// Unparseable instants never reach the API.
	api.lastInsert = nil
	result = g.CreateEvent(context.Background(), CreateInput{
		Summary:       "Team meeting",
		StartDateTime: "sometime soon",
		EndDateTime:   "2025-07-01T15:00:00Z",
	})
	assert.False(t, result.Success)
	assert.Nil(t, api.lastInsert)
}
