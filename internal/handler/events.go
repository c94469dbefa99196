package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/schedulr-ai/calendar-assistant/internal/middleware"
	"github.com/schedulr-ai/calendar-assistant/internal/service"
	"github.com/schedulr-ai/calendar-assistant/pkg/logger"
	"github.com/schedulr-ai/calendar-assistant/pkg/metrics"
)

// EventHandler streams turn lifecycle events over SSE.
type EventHandler struct {
	sessions *service.SessionService
	logger   *logger.Logger
}

// NewEventHandler creates a new event handler.
func NewEventHandler(sessions *service.SessionService, log *logger.Logger) *EventHandler {
	return &EventHandler{
		sessions: sessions,
		logger:   log,
	}
}

// Stream handles GET /api/v1/sessions/{id}/events
func (h *EventHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "id")

	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if middleware.GetSessionID(ctx) != sessionID {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	session, err := h.sessions.Get(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	log := h.logger.WithSession(middleware.GetCorrelationID(ctx), sessionID)

	events := session.Subscribe()
	defer session.Unsubscribe(events)

	sendSSEEvent(w, flusher, "connected", map[string]string{
		"session_id": sessionID,
		"state":      string(session.Orchestrator.State()),
	})

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("SSE client disconnected")
			return

		case event := <-events:
			sendSSEEvent(w, flusher, string(event.Type), event)

		case <-heartbeat.C:
			sendSSEEvent(w, flusher, "heartbeat", map[string]time.Time{
				"timestamp": time.Now(),
			})
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()

	return nil
}
