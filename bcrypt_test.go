package phonebook_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelhq/phonebook"
)

func TestHashPassword(t *testing.T) {
	t.Run("hashes a password", func(t *testing.T) {
		hash, err := phonebook.HashPassword("secret1")

		require.NoError(t, err)
		assert.NotEmpty(t, hash)
		assert.NotEqual(t, "secret1", hash)
	})

	t.Run("rejects empty passwords", func(t *testing.T) {
		_, err := phonebook.HashPassword("")
		assert.ErrorIs(t, err, phonebook.ErrNoEmptyString)
	})

	t.Run("salts every hash", func(t *testing.T) {
		first, err := phonebook.HashPassword("secret1")
		require.NoError(t, err)

		second, err := phonebook.HashPassword("secret1")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := phonebook.HashPassword("secret1")
	require.NoError(t, err)

	t.Run("accepts the original password", func(t *testing.T) {
		assert.NoError(t, phonebook.ComparePasswordAndHash("secret1", hash))
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		err := phonebook.ComparePasswordAndHash("wrong", hash)
		assert.ErrorIs(t, err, phonebook.ErrMismatchedHashAndPassword)
	})
}
