package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/schedulr-ai/calendar-assistant/internal/middleware"
	"github.com/schedulr-ai/calendar-assistant/internal/model"
	"github.com/schedulr-ai/calendar-assistant/internal/orchestrator"
	"github.com/schedulr-ai/calendar-assistant/internal/service"
	"github.com/schedulr-ai/calendar-assistant/pkg/logger"
)

// TurnHandler handles turn submission.
type TurnHandler struct {
	sessions *service.SessionService
	logger   *logger.Logger
}

// NewTurnHandler creates a new turn handler.
func NewTurnHandler(sessions *service.SessionService, log *logger.Logger) *TurnHandler {
	return &TurnHandler{
		sessions: sessions,
		logger:   log,
	}
}

// Send handles POST /api/v1/sessions/{id}/messages
func (h *TurnHandler) Send(w http.ResponseWriter, r *http.Request) {
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

	var req model.SendTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Mode == "" {
		req.Mode = model.InputModeText
	}
	if err := middleware.ValidateInputMode(req.Mode); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateTurnContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := session.Orchestrator.SubmitUserTurn(ctx, req.Content)
	switch {
	case errors.Is(err, orchestrator.ErrEmptyInput):
		writeError(w, http.StatusUnprocessableEntity, "message content is empty")
		return
	case errors.Is(err, orchestrator.ErrTurnInProgress):
		writeError(w, http.StatusConflict, "a turn is already in progress")
		return
	case err != nil:
		// The orchestrator already substituted the apology reply; the
		// turn itself failed but the conversation continues.
		h.logger.WithSession(middleware.GetCorrelationID(ctx), sessionID).
			Error("turn failed", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, &model.SendTurnResponse{
		Reply: reply,
		Speak: req.Mode == model.InputModeVoice,
	})
}
