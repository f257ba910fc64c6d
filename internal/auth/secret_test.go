package auth

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretHasher_Deterministic(t *testing.T) {
	h, err := NewSecretHasher("pepper-a")
	require.NoError(t, err)

	assert.Equal(t, h.Hash("s3cret"), h.Hash("s3cret"))
	assert.NotEqual(t, h.Hash("s3cret"), h.Hash("s3cret2"))
	assert.Len(t, h.Hash("s3cret"), 64)
}

func TestSecretHasher_PepperChangesHash(t *testing.T) {
	a, err := NewSecretHasher("pepper-a")
	require.NoError(t, err)
	b, err := NewSecretHasher("pepper-b")
	require.NoError(t, err)

	assert.NotEqual(t, a.Hash("s3cret"), b.Hash("s3cret"))
	assert.False(t, b.Verify("s3cret", a.Hash("s3cret")))
}

func TestSecretHasher_Verify(t *testing.T) {
	h, err := NewSecretHasher("pepper")
	require.NoError(t, err)

	hash := h.Hash("s3cret")
	assert.True(t, h.Verify("s3cret", hash))
	assert.False(t, h.Verify("S3cret", hash))
	assert.False(t, h.Verify("s3cret", ""))
}

func TestNewSecretHasher_RequiresPepper(t *testing.T) {
	_, err := NewSecretHasher("")
	assert.ErrorIs(t, err, ErrEmptyPepper)
}

func TestGenerateAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(key, APIKeyPrefix))
	body := strings.TrimPrefix(key, APIKeyPrefix)
	assert.Len(t, body, 48)
	_, err = hex.DecodeString(body)
	assert.NoError(t, err)

	other, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}

func TestGenerateAPISecret(t *testing.T) {
	secret, err := GenerateAPISecret()
	require.NoError(t, err)

	assert.Len(t, secret, 64)
	_, err = hex.DecodeString(secret)
	assert.NoError(t, err)
}
