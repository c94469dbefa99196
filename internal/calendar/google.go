package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	calv3 "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/schedulr-ai/calendar-assistant/internal/model"
)

// rfc3339Millis keeps millisecond precision on the day-window bounds.
const rfc3339Millis = "2006-01-02T15:04:05.000Z07:00"

// googleAPI implements API against the Google Calendar v3 service.
type googleAPI struct {
	svc *calv3.Service
}

// NewGoogleAPI builds an API bound to a user's OAuth access token.
func NewGoogleAPI(ctx context.Context, accessToken string) (API, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	svc, err := calv3.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &googleAPI{svc: svc}, nil
}

func (g *googleAPI) List(ctx context.Context, q ListQuery) ([]model.EventSummary, error) {
	resp, err := g.svc.Events.List(q.CalendarID).
		TimeMin(q.TimeMin.Format(rfc3339Millis)).
		TimeMax(q.TimeMax.Format(rfc3339Millis)).
		ShowDeleted(false).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("events.list: %w", err)
	}

	events := make([]model.EventSummary, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, eventSummary(item))
	}
	return events, nil
}

func (g *googleAPI) Insert(ctx context.Context, in *EventInput) (*model.EventSummary, error) {
	event := &calv3.Event{
		Summary:     in.Summary,
		Description: in.Description,
		Start: &calv3.EventDateTime{
			DateTime: in.Start.Format(time.RFC3339),
			TimeZone: in.TimeZone,
		},
		End: &calv3.EventDateTime{
			DateTime: in.End.Format(time.RFC3339),
			TimeZone: in.TimeZone,
		},
	}

	inserted, err := g.svc.Events.Insert(in.CalendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("events.insert: %w", err)
	}

	summary := eventSummary(inserted)
	return &summary, nil
}

func eventSummary(e *calv3.Event) model.EventSummary {
	return model.EventSummary{
		ID:          e.Id,
		Summary:     e.Summary,
		Description: e.Description,
		Start:       eventTime(e.Start),
		End:         eventTime(e.End),
		Location:    e.Location,
		Status:      e.Status,
		HTMLLink:    e.HtmlLink,
	}
}

func eventTime(edt *calv3.EventDateTime) string {
	if edt == nil {
		return ""
	}
	if edt.DateTime != "" {
		return edt.DateTime
	}
	return edt.Date
}
