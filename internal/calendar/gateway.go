// Package calendar adapts the external calendar service to the two tool
// operations the assistant dispatches. Transport failures are recovered at
// this boundary into displayable result values.
package calendar

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/schedulr-ai/calendar-assistant/internal/model"
	"github.com/schedulr-ai/calendar-assistant/pkg/logger"
	"github.com/schedulr-ai/calendar-assistant/pkg/metrics"
)

const primaryCalendar = "primary"

// User-visible failure messages. Detail goes to logs only.
const (
	listFailedMessage   = "Failed to fetch calendar events."
	createFailedMessage = "Failed to create calendar event."
)

// ListQuery is one day-window listing request against the external service.
type ListQuery struct {
	CalendarID string
	TimeMin    time.Time
	TimeMax    time.Time
}

// EventInput is one event creation request against the external service.
type EventInput struct {
	CalendarID  string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string
}

// API is the injected calendar capability: list events in a window and
// insert one event. Implementations must not retry on their own.
type API interface {
	List(ctx context.Context, q ListQuery) ([]model.EventSummary, error)
	Insert(ctx context.Context, in *EventInput) (*model.EventSummary, error)
}

// CreateInput carries the normalized create_calendar_event arguments.
type CreateInput struct {
	Summary       string
	Description   string
	StartDateTime string
	EndDateTime   string
}

// Gateway shapes tool requests for the calendar API and normalizes errors.
type Gateway struct {
	api    API
	clock  func() time.Time
	loc    *time.Location
	logger *logger.Logger
}

// NewGateway creates a gateway. A nil clock means the wall clock and a nil
// location means time.Local.
func NewGateway(api API, clock func() time.Time, loc *time.Location, log *logger.Logger) *Gateway {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Gateway{
		api:    api,
		clock:  clock,
		loc:    loc,
		logger: log,
	}
}

// Location returns the gateway's time zone.
func (g *Gateway) Location() *time.Location {
	return g.loc
}

// ListEvents lists non-deleted single events for the given day (YYYY-MM-DD;
// empty means today), ordered by start time. The window is the inclusive
// local day [00:00:00.000, 23:59:59.999].
func (g *Gateway) ListEvents(ctx context.Context, day string) *model.ListEventsResult {
	start := g.clock()

	target := start.In(g.loc)
	if day != "" {
		parsed, err := time.ParseInLocation("2006-01-02", day, g.loc)
		if err != nil {
			g.logger.Warn("unparseable day argument, defaulting to today",
				zap.String("day", day))
		} else {
			target = parsed
		}
	}

	// Both bounds are wall-clock times so the window stays inside the
	// calendar day even when a DST transition makes it 23 or 25 hours long.
	timeMin := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, g.loc)
	timeMax := time.Date(target.Year(), target.Month(), target.Day(), 23, 59, 59, int(999*time.Millisecond), g.loc)

	reqStart := time.Now()
	events, err := g.api.List(ctx, ListQuery{
		CalendarID: primaryCalendar,
		TimeMin:    timeMin,
		TimeMax:    timeMax,
	})
	if err != nil {
		metrics.RecordCalendarRequest("list", "error", time.Since(reqStart).Seconds())
		g.logger.Error("calendar list failed",
			zap.String("day", day),
			zap.Error(err))
		return &model.ListEventsResult{Error: listFailedMessage}
	}
	metrics.RecordCalendarRequest("list", "ok", time.Since(reqStart).Seconds())

	if events == nil {
		events = []model.EventSummary{}
	}
	return &model.ListEventsResult{Events: events}
}

// CreateEvent inserts one event on the primary calendar. Both timestamps are
// expected in ISO form (the orchestrator normalizes them first); they are
// tagged with the gateway's time zone.
func (g *Gateway) CreateEvent(ctx context.Context, in CreateInput) *model.CreateEventResult {
	start, err := g.parseInstant(in.StartDateTime)
	if err != nil {
		g.logger.Warn("unparseable event start",
			zap.String("start", in.StartDateTime),
			zap.Error(err))
		return &model.CreateEventResult{Success: false, Error: createFailedMessage}
	}
	end, err := g.parseInstant(in.EndDateTime)
	if err != nil {
		g.logger.Warn("unparseable event end",
			zap.String("end", in.EndDateTime),
			zap.Error(err))
		return &model.CreateEventResult{Success: false, Error: createFailedMessage}
	}

	reqStart := time.Now()
	event, err := g.api.Insert(ctx, &EventInput{
		CalendarID:  primaryCalendar,
		Summary:     in.Summary,
		Description: in.Description,
		Start:       start,
		End:         end,
		TimeZone:    g.loc.String(),
	})
	if err != nil {
		metrics.RecordCalendarRequest("insert", "error", time.Since(reqStart).Seconds())
		g.logger.Error("calendar insert failed",
			zap.String("summary", in.Summary),
			zap.Error(err))
		return &model.CreateEventResult{Success: false, Error: createFailedMessage}
	}
	metrics.RecordCalendarRequest("insert", "ok", time.Since(reqStart).Seconds())

	return &model.CreateEventResult{Success: true, Event: event}
}

func (g *Gateway) parseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", s, g.loc)
}
