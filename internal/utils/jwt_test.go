package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, false, 15)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), tok.Exp, 5*time.Second)

	claims, err := ParseAccessToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.False(t, claims.IsAdmin)
}

func TestAccessTokenCarriesAdminFlag(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 7, true, 15)
	require.NoError(t, err)

	claims, err := ParseAccessToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
	assert.True(t, claims.IsAdmin)
}

func TestParseAccessTokenExpired(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, false, -1)
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenWrongSecret(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, false, 15)
	require.NoError(t, err)

	_, err = ParseAccessToken("another-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenTampered(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, false, 15)
	require.NoError(t, err)

	// Flip one byte of the signature.
	raw := []byte(tok.Token)
	last := raw[len(raw)-1]
	if last == 'A' {
		raw[len(raw)-1] = 'B'
	} else {
		raw[len(raw)-1] = 'A'
	}

	_, err = ParseAccessToken(testSecret, string(raw))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenMalformed(t *testing.T) {
	for _, raw := range []string{"", "garbage", "a.b.c"} {
		_, err := ParseAccessToken(testSecret, raw)
		assert.ErrorIs(t, err, ErrInvalidToken, "input %q", raw)
	}
}

func TestNewRefreshToken(t *testing.T) {
	r1, err := NewRefreshToken(7)
	require.NoError(t, err)
	r2, err := NewRefreshToken(7)
	require.NoError(t, err)

	assert.Len(t, r1.Raw, 96) // 48 random bytes hex encoded
	assert.NotEqual(t, r1.Raw, r2.Raw)
	assert.WithinDuration(t, time.Now().UTC().Add(7*24*time.Hour), r1.Exp, 5*time.Second)
}

func TestHashRefreshRaw(t *testing.T) {
	h1 := HashRefreshRaw("token-a")
	h2 := HashRefreshRaw("token-a")
	h3 := HashRefreshRaw("token-b")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64) // sha256 hex
	assert.NotContains(t, h1, "token-a")
}
