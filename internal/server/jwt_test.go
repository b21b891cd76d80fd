package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonathan/job-agent/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func newTestJWTService(expirationHours int) *JWTService {
	return NewJWTService(config.JWTConfig{Secret: testSecret, ExpirationHours: expirationHours})
}

func TestJWTService_RoundTrip(t *testing.T) {
	service := newTestJWTService(24)

	token, expiresAt, err := service.GenerateToken("session-1")
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", claims.GetSessionID())
	assert.Equal(t, "session-1", claims.Subject)
	assert.Equal(t, tokenIssuer, claims.Issuer)
}

func TestJWTService_Rejects(t *testing.T) {
	service := newTestJWTService(1)
	valid, _, err := service.GenerateToken("session-1")
	require.NoError(t, err)

	expired := newTestJWTService(1)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, _, err := expired.GenerateToken("session-1")
	require.NoError(t, err)

	otherKey := NewJWTService(config.JWTConfig{Secret: "another-secret-that-is-long-enough", ExpirationHours: 1})
	forged, _, err := otherKey.GenerateToken("session-1")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{SessionID: "session-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		SessionID:        "session-1",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noSession, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantMsg string
	}{
		{"empty", "", "empty"},
		{"garbage", "not.a.jwt", "malformed"},
		{"tampered", valid[:len(valid)-2] + "xx", "signature"},
		{"expired", expiredToken, "expired"},
		{"other key", forged, "signature"},
		{"alg none", none, ""},
		{"wrong issuer", wrongIssuer, ""},
		{"no session", noSession, "not valid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateToken(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestJWTService_Validator(t *testing.T) {
	service := newTestJWTService(1)
	token, _, err := service.GenerateToken("session-9")
	require.NoError(t, err)

	claims, err := service.Validator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "session-9", claims.GetSessionID())

	_, err = service.Validator().ValidateToken("bad")
	assert.Error(t, err)
}
