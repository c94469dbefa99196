// Package service provides business logic for the calendar assistant.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/schedulr-ai/calendar-assistant/internal/calendar"
	"github.com/schedulr-ai/calendar-assistant/internal/config"
	"github.com/schedulr-ai/calendar-assistant/internal/llm"
	"github.com/schedulr-ai/calendar-assistant/internal/model"
	natsclient "github.com/schedulr-ai/calendar-assistant/internal/nats"
	"github.com/schedulr-ai/calendar-assistant/internal/orchestrator"
	"github.com/schedulr-ai/calendar-assistant/pkg/logger"
	"github.com/schedulr-ai/calendar-assistant/pkg/metrics"
)

// ErrSessionNotFound is returned when a session ID is unknown.
var ErrSessionNotFound = errors.New("session not found")

// TokenRevoker revokes a Google OAuth access token on sign-out.
type TokenRevoker interface {
	RevokeGoogleToken(ctx context.Context, accessToken string) error
}

// eventBuffer is the per-subscriber channel capacity. Slow SSE consumers
// drop events rather than block a turn.
const eventBuffer = 32

// Session binds one authenticated user's calendar gateway and conversation
// orchestrator.
type Session struct {
	ID          string
	CreatedAt   time.Time
	googleToken string

	Orchestrator *orchestrator.Orchestrator

	mu          sync.Mutex
	subscribers map[chan model.TurnEvent]struct{}
}

// Subscribe registers a channel that receives this session's turn events.
func (s *Session) Subscribe() chan model.TurnEvent {
	ch := make(chan model.TurnEvent, eventBuffer)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

// Unsubscribe removes a previously registered channel.
func (s *Session) Unsubscribe(ch chan model.TurnEvent) {
	s.mu.Lock()
	delete(s.subscribers, ch)
	s.mu.Unlock()
}

func (s *Session) broadcast(event model.TurnEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is not keeping up; drop the event.
		}
	}
}

// SessionService manages the lifetime of assistant sessions.
type SessionService struct {
	cfg           *config.Config
	llmClient     llm.Client
	streamManager *natsclient.StreamManager
	revoker       TokenRevoker
	logger        *logger.Logger
	clock         func() time.Time
	location      *time.Location

	// newCalendarAPI is swappable in tests.
	newCalendarAPI func(ctx context.Context, accessToken string) (calendar.API, error)

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionService creates a session service. streamManager may be nil when
// the NATS event sink is not configured.
func NewSessionService(cfg *config.Config, client llm.Client, streamManager *natsclient.StreamManager, revoker TokenRevoker, log *logger.Logger) (*SessionService, error) {
	loc := time.Local
	if cfg.CalendarTimezone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.CalendarTimezone)
		if err != nil {
			return nil, fmt.Errorf("invalid calendar timezone %q: %w", cfg.CalendarTimezone, err)
		}
	}

	clock := time.Now
	if cfg.ReferenceDate != "" {
		ref, err := time.ParseInLocation("2006-01-02", cfg.ReferenceDate, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid reference date %q: %w", cfg.ReferenceDate, err)
		}
		clock = func() time.Time { return ref }
	}

	return &SessionService{
		cfg:            cfg,
		llmClient:      client,
		streamManager:  streamManager,
		revoker:        revoker,
		logger:         log,
		clock:          clock,
		location:       loc,
		newCalendarAPI: calendar.NewGoogleAPI,
		sessions:       make(map[string]*Session),
	}, nil
}

// Create opens a new session backed by the given Google access token and
// returns it with the opening greeting.
func (s *SessionService) Create(ctx context.Context, googleToken string) (*Session, string, error) {
	api, err := s.newCalendarAPI(ctx, googleToken)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create calendar client: %w", err)
	}

	sessionID := uuid.Must(uuid.NewV7()).String()
	gateway := calendar.NewGateway(api, s.clock, s.location, s.logger)

	session := &Session{
		ID:          sessionID,
		CreatedAt:   s.clock(),
		googleToken: googleToken,
		subscribers: make(map[chan model.TurnEvent]struct{}),
	}

	observer := func(event model.TurnEvent) {
		session.broadcast(event)
		if s.streamManager != nil {
			pubCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if _, err := s.streamManager.PublishTurnEvent(pubCtx, &event); err != nil {
				s.logger.Warn("failed to publish turn event",
					zap.String("session_id", event.SessionID),
					zap.Error(err))
			}
		}
	}

	session.Orchestrator = orchestrator.New(sessionID, s.llmClient, gateway, s.clock, s.logger, observer)

	s.mu.Lock()
	s.sessions[sessionID] = session
	s.mu.Unlock()
	metrics.SessionsActive.Inc()

	s.logger.Info("session created", zap.String("session_id", sessionID))

	return session, s.Greeting(), nil
}

// Get retrieves a session by ID.
func (s *SessionService) Get(sessionID string) (*Session, error) {
	s.mu.RLock()
	session, exists := s.sessions[sessionID]
	s.mu.RUnlock()

	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Reset clears a session's conversation history. It waits for any in-flight
// turn to finish first.
func (s *SessionService) Reset(sessionID string) error {
	session, err := s.Get(sessionID)
	if err != nil {
		return err
	}
	session.Orchestrator.Reset()
	s.logger.Info("session reset", zap.String("session_id", sessionID))
	return nil
}

// Delete signs the session out. The session is removed from the registry and
// the Google token is revoked; revocation failure does not undo the sign-out.
func (s *SessionService) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	session, exists := s.sessions[sessionID]
	if exists {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()

	if !exists {
		return ErrSessionNotFound
	}
	metrics.SessionsActive.Dec()

	// Let any in-flight turn complete before tearing down.
	session.Orchestrator.Reset()

	if err := s.revoker.RevokeGoogleToken(ctx, session.googleToken); err != nil {
		s.logger.Warn("failed to revoke google token",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}

	s.logger.Info("session deleted", zap.String("session_id", sessionID))
	return nil
}

// Greeting returns the assistant's opening line for a new session.
func (s *SessionService) Greeting() string {
	today := s.clock().Format("Monday, January 2, 2006")
	return fmt.Sprintf("I'm ready! Today is %s. Ask me about your schedule or to create an event.", today)
}
