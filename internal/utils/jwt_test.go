package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-only-key"))
	require.NoError(t, err)
	return s
}

func TestParseTokenUnverified_ReadsClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := signToken(t, jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(exp),
	})

	token, err := ParseTokenUnverified(raw)
	require.NoError(t, err)

	userID, err := token.GetUserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
	assert.True(t, exp.Equal(token.ExpiresAt.Time))
	assert.False(t, token.Expired(time.Now()))
	assert.True(t, token.Expired(exp))
	assert.Equal(t, raw, token.String())
}

func TestParseTokenUnverified_ExpiredTokenStillParses(t *testing.T) {
	raw := signToken(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))})

	token, err := ParseTokenUnverified(raw)
	require.NoError(t, err)
	assert.True(t, token.Expired(time.Now()))
}

func TestParseTokenUnverified_NoExpiryNeverExpires(t *testing.T) {
	token, err := ParseTokenUnverified(signToken(t, jwt.RegisteredClaims{Subject: "1"}))
	require.NoError(t, err)
	assert.False(t, token.Expired(time.Now().Add(100*365*24*time.Hour)))
}

func TestParseTokenUnverified_OpaqueToken(t *testing.T) {
	_, err := ParseTokenUnverified("opaque-refresh-token")
	require.ErrorIs(t, err, ErrNotAJWT)
}
