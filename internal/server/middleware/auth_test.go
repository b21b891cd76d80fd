package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type claims string

func (c claims) GetSessionID() string { return string(c) }

type fakeValidator map[string]string

func (v fakeValidator) ValidateToken(token string) (SessionClaims, error) {
	id, ok := v[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return claims(id), nil
}

func TestRequireSession(t *testing.T) {
	validator := fakeValidator{"good": "session-1", "blank": ""}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantID     string
	}{
		{"valid", "Bearer good", http.StatusOK, "session-1"},
		{"scheme is case-insensitive", "bearer good", http.StatusOK, "session-1"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, ""},
		{"no token", "Bearer", http.StatusUnauthorized, ""},
		{"extra parts", "Bearer good extra", http.StatusUnauthorized, ""},
		{"unknown token", "Bearer bad", http.StatusUnauthorized, ""},
		{"token without session", "Bearer blank", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID string
			handler := RequireSession(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				id, ok := SessionID(r.Context())
				require.True(t, ok)
				gotID = id
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantID, gotID)
			if tt.wantStatus == http.StatusUnauthorized {
				var body map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, "unauthorized", body["code"])
				assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestSessionID(t *testing.T) {
	_, ok := SessionID(context.Background())
	assert.False(t, ok)

	_, ok = SessionID(WithSessionID(context.Background(), ""))
	assert.False(t, ok)

	id, ok := SessionID(WithSessionID(context.Background(), "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
}
