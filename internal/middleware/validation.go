package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/schedulr-ai/calendar-assistant/internal/model"
)

// ValidateTurnContent validates a submitted turn's content. Emptiness is
// not checked here; the orchestrator rejects blank turns so empty and
// whitespace-only input get the same response.
func ValidateTurnContent(content string) error {
	if len(content) > 32000 { // ~32KB limit, far above any spoken transcript
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateSessionID validates a session ID.
func ValidateSessionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid session ID format")
	}
	return nil
}

// ValidateInputMode validates the declared input mode; empty means text.
func ValidateInputMode(mode model.InputMode) error {
	switch mode {
	case "", model.InputModeText, model.InputModeVoice:
		return nil
	}
	return errors.New("input mode must be \"text\" or \"voice\"")
}

// ValidateGoogleAccessToken sanity-checks the calendar access token shape.
func ValidateGoogleAccessToken(token string) error {
	if len(token) == 0 {
		return errors.New("google access token cannot be empty")
	}
	if len(token) > 4096 {
		return errors.New("google access token exceeds maximum length")
	}
	return nil
}
