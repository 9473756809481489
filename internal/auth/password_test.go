// internal/auth/password_test.go
package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundtrip(t *testing.T) {
	hash, err := CreateHash("hunter2", Params)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := ComparePasswordAndHash("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ComparePasswordAndHash("hunter3", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHashesAreSalted(t *testing.T) {
	h1, err := CreateHash("same password", Params)
	require.NoError(t, err)
	h2, err := CreateHash("same password", Params)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestComparePasswordRejectsBadHash(t *testing.T) {
	_, err := ComparePasswordAndHash("whatever", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)
}
