package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "secret1", hash)

	assert.True(t, VerifyPassword(hash, "secret1"))
	assert.False(t, VerifyPassword(hash, "secret2"))
	assert.False(t, VerifyPassword(hash, ""))
}

func TestHashPasswordDistinctSalts(t *testing.T) {
	h1, err := HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)
	h2, err := HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)
	// Same password, different salt, different digest.
	assert.NotEqual(t, h1, h2)
	assert.True(t, VerifyPassword(h1, "secret1"))
	assert.True(t, VerifyPassword(h2, "secret1"))
}

func TestHashPasswordInvalidCost(t *testing.T) {
	_, err := HashPassword("secret1", bcrypt.MaxCost+1)
	assert.Error(t, err)
}

func TestVerifyPasswordGarbageHash(t *testing.T) {
	// Malformed stored hash is a mismatch, never a panic.
	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "secret1"))
}
