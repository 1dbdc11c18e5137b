package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessToken_RoundTrip(t *testing.T) {
	at, err := NewAccessToken("s3cret", 42, "EMPLOYEE", 15)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), at.Exp, 5*time.Second)

	id, err := ParseAccessToken("s3cret", at.Token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 42, Role: "EMPLOYEE"}, id)
}

func TestParseAccessToken_Rejects(t *testing.T) {
	good, err := NewAccessToken("s3cret", 42, "CUSTOMER", 15)
	require.NoError(t, err)
	expired, err := NewAccessToken("s3cret", 42, "CUSTOMER", -1)
	require.NoError(t, err)
	noRole, err := NewAccessToken("s3cret", 42, "", 15)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, AccessClaims{
		Role:             "EMPLOYEE",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "42"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name, secret, token string
	}{
		{"wrong secret", "other", good.Token},
		{"expired", "s3cret", expired.Token},
		{"missing role", "s3cret", noRole.Token},
		{"unsigned", "s3cret", none},
		{"garbage", "s3cret", "not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAccessToken(tt.secret, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(30)
	require.NoError(t, err)
	b, err := NewRefreshToken(30)
	require.NoError(t, err)

	assert.Len(t, a.Raw, 96)
	assert.NotEqual(t, a.Raw, b.Raw)
	assert.Len(t, HashRefreshRaw(a.Raw), 64)
	assert.Equal(t, HashRefreshRaw(a.Raw), HashRefreshRaw(a.Raw))
	assert.NotEqual(t, a.Raw, HashRefreshRaw(a.Raw))
}
