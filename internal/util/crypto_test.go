package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewPasswordHasher(t *testing.T) {
	t.Run("defaults to cost 12", func(t *testing.T) {
		assert.Equal(t, 12, NewPasswordHasher(0).Cost())
	})

	t.Run("clamps cost to bcrypt bounds", func(t *testing.T) {
		assert.Equal(t, bcrypt.MinCost, NewPasswordHasher(1).Cost())
		assert.Equal(t, bcrypt.MaxCost, NewPasswordHasher(99).Cost())
	})
}

func TestPasswordHasher(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	t.Run("round trip verifies", func(t *testing.T) {
		hash, err := hasher.Hash("Secret123")
		require.NoError(t, err)
		assert.NotEqual(t, "Secret123", hash)
		assert.True(t, hasher.Verify("Secret123", hash))
	})

	t.Run("uses configured cost", func(t *testing.T) {
		hash, err := hasher.Hash("Secret123")
		require.NoError(t, err)
		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, bcrypt.MinCost, cost)
	})

	t.Run("same password generates different hashes", func(t *testing.T) {
		h1, _ := hasher.Hash("Secret123")
		h2, _ := hasher.Hash("Secret123")
		assert.NotEqual(t, h1, h2)
	})

	t.Run("rejects single character mutations", func(t *testing.T) {
		plaintext := "Secret123"
		hash, err := hasher.Hash(plaintext)
		require.NoError(t, err)

		for i := 0; i < len(plaintext); i++ {
			mutated := []byte(plaintext)
			mutated[i] = mutated[i] ^ 0x01
			assert.False(t, hasher.Verify(string(mutated), hash), "mutation at %d", i)
		}
		assert.False(t, hasher.Verify(plaintext+"x", hash))
		assert.False(t, hasher.Verify(plaintext[:len(plaintext)-1], hash))
	})

	t.Run("round trips printable ASCII", func(t *testing.T) {
		var b strings.Builder
		for c := byte(0x20); c < 0x7f && b.Len() < MaxPasswordBytes; c++ {
			b.WriteByte(c)
		}
		plaintext := b.String()
		hash, err := hasher.Hash(plaintext)
		require.NoError(t, err)
		assert.True(t, hasher.Verify(plaintext, hash))
	})

	t.Run("rejects passwords longer than 72 bytes", func(t *testing.T) {
		_, err := hasher.Hash(strings.Repeat("a", MaxPasswordBytes+1))
		assert.ErrorIs(t, err, ErrPasswordTooLong)
	})

	t.Run("empty hash never verifies", func(t *testing.T) {
		assert.False(t, hasher.Verify("", ""))
	})
}

func TestGenerateSecret(t *testing.T) {
	s1, err := GenerateSecret(32)
	require.NoError(t, err)
	s2, _ := GenerateSecret(32)
	assert.Len(t, s1, 64)
	assert.NotEqual(t, s1, s2)
}
