package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	hasher := NewBcryptHasher(0)

	hash, err := hasher.Hash("Secret123!")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "Secret123!", hash)

	valid, err := hasher.Verify("Secret123!", hash)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = hasher.Verify("WrongPassword", hash)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestBcryptHasher_EmptyInput(t *testing.T) {
	hasher := NewBcryptHasher(0)

	_, err := hasher.Hash("")
	assert.Error(t, err)

	_, err = hasher.Verify("", "hash")
	assert.Error(t, err)

	_, err = hasher.Verify("password", "")
	assert.Error(t, err)
}

func TestBcryptHasher_HashesAreSalted(t *testing.T) {
	hasher := NewBcryptHasher(0)

	first, err := hasher.Hash("Secret123!")
	require.NoError(t, err)
	second, err := hasher.Hash("Secret123!")
	require.NoError(t, err)

	// bcrypt embeds a random salt, so two hashes of the same password differ
	assert.NotEqual(t, first, second)
}
