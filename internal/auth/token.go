// Package auth handles session tokens for the API surface and revocation
// of the Google access token a session is bound to.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// googleRevokeURL is the OAuth 2.0 token revocation endpoint.
const googleRevokeURL = "https://oauth2.googleapis.com/revoke"

// ErrInvalidToken reports a session token that failed verification.
var ErrInvalidToken = errors.New("invalid session token")

// Claims represents session JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"session_id"`
}

// TokenManager mints and verifies session JWTs.
type TokenManager struct {
	secret     []byte
	ttl        time.Duration
	revokeURL  string
	httpClient *http.Client
}

// NewTokenManager creates a token manager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		ttl:        ttl,
		revokeURL:  googleRevokeURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Mint issues a session token.
func (m *TokenManager) Mint(sessionID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		SessionID: sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RevokeGoogleToken revokes a Google OAuth access token. Used at sign-out so
// the calendar grant does not outlive the session.
func (m *TokenManager) RevokeGoogleToken(ctx context.Context, accessToken string) error {
	form := url.Values{"token": {accessToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.revokeURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("revoke request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revoke request returned status %d", resp.StatusCode)
	}
	return nil
}
