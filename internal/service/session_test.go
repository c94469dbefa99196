package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedulr-ai/calendar-assistant/internal/calendar"
	"github.com/schedulr-ai/calendar-assistant/internal/config"
	"github.com/schedulr-ai/calendar-assistant/internal/llm"
	"github.com/schedulr-ai/calendar-assistant/internal/model"
	"github.com/schedulr-ai/calendar-assistant/pkg/logger"
)

type stubLLM struct{}

func (s *stubLLM) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	return &llm.GenerateResponse{Text: "hello"}, nil
}

func (s *stubLLM) Name() string     { return "stub" }
func (s *stubLLM) Models() []string { return []string{"stub"} }

type stubCalendarAPI struct{}

func (s *stubCalendarAPI) List(ctx context.Context, q calendar.ListQuery) ([]model.EventSummary, error) {
	return nil, nil
}

func (s *stubCalendarAPI) Insert(ctx context.Context, in *calendar.EventInput) (*model.EventSummary, error) {
	return &model.EventSummary{Summary: in.Summary}, nil
}

type stubRevoker struct {
	tokens []string
	err    error
}

func (s *stubRevoker) RevokeGoogleToken(ctx context.Context, accessToken string) error {
	s.tokens = append(s.tokens, accessToken)
	return s.err
}

func newTestService(t *testing.T, revoker TokenRevoker) *SessionService {
	t.Helper()

	log, err := logger.NewDevelopment()
	require.NoError(t, err)

	cfg := &config.Config{
		CalendarTimezone: "UTC",
		ReferenceDate:    "2025-06-27",
	}

	svc, err := NewSessionService(cfg, &stubLLM{}, nil, revoker, log)
	require.NoError(t, err)

	svc.newCalendarAPI = func(ctx context.Context, accessToken string) (calendar.API, error) {
		return &stubCalendarAPI{}, nil
	}

	return svc
}

func TestCreateAndGetSession(t *testing.T) {
	svc := newTestService(t, &stubRevoker{})

	session, greeting, err := svc.Create(context.Background(), "ya29.test")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.NotEmpty(t, session.ID)
	assert.Contains(t, greeting, "Friday, June 27, 2025")

	got, err := svc.Get(session.ID)
	require.NoError(t, err)
	assert.Same(t, session, got)
}

func TestGetUnknownSession(t *testing.T) {
	svc := newTestService(t, &stubRevoker{})

	_, err := svc.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestReferenceDateClock(t *testing.T) {
	svc := newTestService(t, &stubRevoker{})

	assert.Equal(t, time.Date(2025, 6, 27, 0, 0, 0, 0, time.UTC), svc.clock())
}

func TestDeleteRevokesToken(t *testing.T) {
	revoker := &stubRevoker{}
	svc := newTestService(t, revoker)

	session, _, err := svc.Create(context.Background(), "ya29.test")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), session.ID))
	assert.Equal(t, []string{"ya29.test"}, revoker.tokens)

	_, err = svc.Get(session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteSucceedsWhenRevocationFails(t *testing.T) {
	revoker := &stubRevoker{err: errors.New("revocation endpoint down")}
	svc := newTestService(t, revoker)

	session, _, err := svc.Create(context.Background(), "ya29.test")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), session.ID))

	_, err = svc.Get(session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteUnknownSession(t *testing.T) {
	svc := newTestService(t, &stubRevoker{})

	err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestResetClearsHistory(t *testing.T) {
	svc := newTestService(t, &stubRevoker{})

	session, _, err := svc.Create(context.Background(), "ya29.test")
	require.NoError(t, err)

	_, err = session.Orchestrator.SubmitUserTurn(context.Background(), "hi")
	require.NoError(t, err)
	require.NotEmpty(t, session.Orchestrator.History())

	require.NoError(t, svc.Reset(session.ID))
	assert.Empty(t, session.Orchestrator.History())
}

func TestSubscriberReceivesTurnEvents(t *testing.T) {
	svc := newTestService(t, &stubRevoker{})

	session, _, err := svc.Create(context.Background(), "ya29.test")
	require.NoError(t, err)

	events := session.Subscribe()
	defer session.Unsubscribe(events)

	_, err = session.Orchestrator.SubmitUserTurn(context.Background(), "hi")
	require.NoError(t, err)

	var types []model.TurnEventType
	for done := false; !done; {
		select {
		case ev := <-events:
			types = append(types, ev.Type)
			if ev.Type == model.TurnEventCompleted {
				done = true
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for turn events")
		}
	}

	assert.Equal(t, model.TurnEventStarted, types[0])
	assert.Equal(t, model.TurnEventCompleted, types[len(types)-1])
}

func TestInvalidTimezoneRejected(t *testing.T) {
	log, err := logger.NewDevelopment()
	require.NoError(t, err)

	cfg := &config.Config{CalendarTimezone: "Mars/Olympus"}
	_, err = NewSessionService(cfg, &stubLLM{}, nil, &stubRevoker{}, log)
	assert.Error(t, err)
}
