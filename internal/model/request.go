package model

// InputMode distinguishes typed input from a completed speech transcript.
// Both follow the same turn path; voice turns get a speak hint back.
type InputMode string

const (
	InputModeText  InputMode = "text"
	InputModeVoice InputMode = "voice"
)

// CreateSessionRequest starts a session bound to a Google Calendar access token.
type CreateSessionRequest struct {
	GoogleAccessToken string `json:"google_access_token"`
}

// CreateSessionResponse returns the session handle and greeting.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	Greeting  string `json:"greeting"`
}

// SendTurnRequest submits one user turn.
type SendTurnRequest struct {
	Content string    `json:"content"`
	Mode    InputMode `json:"mode,omitempty"`
}

// SendTurnResponse carries the final assistant message for the turn.
type SendTurnResponse struct {
	Reply string `json:"reply"`
	Speak bool   `json:"speak"`
}

// HistoryResponse lists the session's conversation history.
type HistoryResponse struct {
	Messages []ConversationMessage `json:"messages"`
}

// ErrorResponse is the error envelope every non-2xx JSON response carries.
type ErrorResponse struct {
	Error string `json:"error"`
}
