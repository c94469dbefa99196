package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintAndVerify(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	token, err := m.Mint("sess-42")
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-42", claims.SessionID)
	assert.Equal(t, "sess-42", claims.Subject)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a", time.Hour).Mint("sess-1")
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewTokenManager("test-secret", -time.Minute)

	token, err := m.Mint("sess-1")
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokeGoogleToken(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotToken = r.PostFormValue("token")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewTokenManager("test-secret", time.Hour)
	m.revokeURL = srv.URL

	require.NoError(t, m.RevokeGoogleToken(context.Background(), "ya29.access"))
	assert.Equal(t, "ya29.access", gotToken)
}

func TestRevokeGoogleTokenFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	m := NewTokenManager("test-secret", time.Hour)
	m.revokeURL = srv.URL

	assert.Error(t, m.RevokeGoogleToken(context.Background(), "expired"))
}
