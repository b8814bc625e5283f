package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockroom/pkg/auth"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, auth.CheckPassword(hash, "s3cret"))
	assert.False(t, auth.CheckPassword(hash, "wrong"))
}

func TestRememberToken(t *testing.T) {
	tokens := auth.NewTokens("key-one", time.Hour)
	hash, err := auth.HashPassword("pw")
	require.NoError(t, err)

	raw, err := tokens.Issue(42, hash)
	require.NoError(t, err)

	claims, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.True(t, claims.Matches(hash))

	other, err := auth.HashPassword("pw2")
	require.NoError(t, err)
	assert.False(t, claims.Matches(other), "a new password revokes old tokens")
}

func TestTokenRejectedWithOtherSecret(t *testing.T) {
	raw, err := auth.NewTokens("key-one", time.Hour).Issue(1, "hash-value-abcdef")
	require.NoError(t, err)

	_, err = auth.NewTokens("key-two", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = auth.NewTokens("key-one", time.Hour).Parse("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestDefaultTTL(t *testing.T) {
	assert.Equal(t, auth.RememberTTL, auth.NewTokens("k", 0).TTL())
}
