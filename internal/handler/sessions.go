// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/schedulr-ai/calendar-assistant/internal/auth"
	"github.com/schedulr-ai/calendar-assistant/internal/middleware"
	"github.com/schedulr-ai/calendar-assistant/internal/model"
	"github.com/schedulr-ai/calendar-assistant/internal/service"
	"github.com/schedulr-ai/calendar-assistant/pkg/logger"
)

// SessionHandler handles session lifecycle endpoints.
type SessionHandler struct {
	sessions *service.SessionService
	tokens   *auth.TokenManager
	logger   *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessions *service.SessionService, tokens *auth.TokenManager, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		tokens:   tokens,
		logger:   log,
	}
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateGoogleAccessToken(req.GoogleAccessToken); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, greeting, err := h.sessions.Create(ctx, req.GoogleAccessToken)
	if err != nil {
		h.logger.Error("failed to create session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	token, err := h.tokens.Mint(session.ID)
	if err != nil {
		h.logger.Error("failed to mint session token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	writeJSON(w, http.StatusCreated, &model.CreateSessionResponse{
		SessionID: session.ID,
		Token:     token,
		Greeting:  greeting,
	})
}

// History handles GET /api/v1/sessions/{id}/messages
func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	session, ok := h.authorizedSession(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, &model.HistoryResponse{
		Messages: session.Orchestrator.History(),
	})
}

// Reset handles POST /api/v1/sessions/{id}/reset
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	session, ok := h.authorizedSession(w, r)
	if !ok {
		return
	}

	if err := h.sessions.Reset(session.ID); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"greeting": h.sessions.Greeting(),
	})
}

// Delete handles DELETE /api/v1/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session, ok := h.authorizedSession(w, r)
	if !ok {
		return
	}

	if err := h.sessions.Delete(r.Context(), session.ID); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// authorizedSession resolves the {id} path parameter and checks it against
// the session bound to the bearer token. Mismatches look like missing
// sessions to the caller.
func (h *SessionHandler) authorizedSession(w http.ResponseWriter, r *http.Request) (*service.Session, bool) {
	sessionID := chi.URLParam(r, "id")

	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	if middleware.GetSessionID(r.Context()) != sessionID {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}

	session, err := h.sessions.Get(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}

	return session, true
}
