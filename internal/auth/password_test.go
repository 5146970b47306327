package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashVerifyRoundTrip(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("Secret123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "bcrypt-sha256$$2a$04$"), hash)

	assert.Equal(t, VerifySuccess, hasher.Verify(hash, "Secret123"))
	assert.Equal(t, VerifyFailed, hasher.Verify(hash, "secret123"))
	assert.Equal(t, VerifyFailed, hasher.Verify(hash, ""))
}

func TestHashIsSaltedPerCall(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	first, err := hasher.Hash("Secret123")
	require.NoError(t, err)
	second, err := hasher.Hash("Secret123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, VerifySuccess, hasher.Verify(first, "Secret123"))
	assert.Equal(t, VerifySuccess, hasher.Verify(second, "Secret123"))
}

func TestVerifyMalformedHashFails(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	for _, stored := range []string{"", "plaintext", "$2a$04$short", "bcrypt-sha256$", "bcrypt-sha256$plaintext"} {
		assert.Equal(t, VerifyFailed, hasher.Verify(stored, "plaintext"), stored)
	}
}

func TestHashVerifyLongPasswords(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)
	long := strings.Repeat("a", 80)

	hash, err := hasher.Hash(long)
	require.NoError(t, err)
	assert.Equal(t, VerifySuccess, hasher.Verify(hash, long))

	// Bytes past the 72nd still count.
	assert.Equal(t, VerifyFailed, hasher.Verify(hash, strings.Repeat("a", 79)+"b"))
	assert.Equal(t, VerifyFailed, hasher.Verify(hash, strings.Repeat("a", 72)))

	multibyte := strings.Repeat("пароль", 20)
	hash, err = hasher.Hash(multibyte)
	require.NoError(t, err)
	assert.Equal(t, VerifySuccess, hasher.Verify(hash, multibyte))
}

func TestVerifyAcceptsPlainBcryptHashes(t *testing.T) {
	plain, err := bcrypt.GenerateFromPassword([]byte("Secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	hasher := NewPasswordHasher(bcrypt.MinCost)
	assert.Equal(t, VerifySuccess, hasher.Verify(string(plain), "Secret123"))
	assert.Equal(t, VerifyFailed, hasher.Verify(string(plain), "Secret124"))
	assert.Equal(t, VerifyFailed, hasher.Verify("bcrypt-sha256$"+string(plain), "Secret123"))
}

func TestVerifyAcceptsHashesOfOtherCosts(t *testing.T) {
	stored, err := NewPasswordHasher(bcrypt.MinCost + 1).Hash("Secret123")
	require.NoError(t, err)

	assert.Equal(t, VerifySuccess, NewPasswordHasher(bcrypt.MinCost).Verify(stored, "Secret123"))
}

func TestNewPasswordHasherFallsBackToDefaultCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, bcrypt.MinCost, NewPasswordHasher(bcrypt.MinCost).cost)
}

func TestVerifyResultString(t *testing.T) {
	assert.Equal(t, "success", VerifySuccess.String())
	assert.Equal(t, "failed", VerifyFailed.String())
}
