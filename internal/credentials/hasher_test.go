package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHasher_EmptySecret(t *testing.T) {
	t.Parallel()

	_, err := NewHasher(nil)
	require.ErrorIs(t, err, ErrEmptySecret)

	_, err = NewHasher([]byte{})
	require.ErrorIs(t, err, ErrEmptySecret)
}

func TestHasher_Deterministic(t *testing.T) {
	t.Parallel()

	hasher, err := NewHasher([]byte("server-secret"))
	require.NoError(t, err)

	first := hasher.Hash("correct horse battery staple")
	second := hasher.Hash("correct horse battery staple")
	assert.Equal(t, first, second)

	// SHA-512 digest, hex encoded
	assert.Len(t, first, 128)
}

func TestHasher_DifferentInputsDiffer(t *testing.T) {
	t.Parallel()

	hasher, err := NewHasher([]byte("server-secret"))
	require.NoError(t, err)

	assert.NotEqual(t, hasher.Hash("password-one"), hasher.Hash("password-two"))
}

func TestHasher_DifferentSecretsDiffer(t *testing.T) {
	t.Parallel()

	first, err := NewHasher([]byte("secret-a"))
	require.NoError(t, err)
	second, err := NewHasher([]byte("secret-b"))
	require.NoError(t, err)

	assert.NotEqual(t, first.Hash("same password"), second.Hash("same password"))
}

func TestHasher_Matches(t *testing.T) {
	t.Parallel()

	hasher, err := NewHasher([]byte("server-secret"))
	require.NoError(t, err)

	digest := hasher.Hash("s3cret-pass")

	assert.True(t, hasher.Matches(digest, "s3cret-pass"))
	assert.False(t, hasher.Matches(digest, "wrong-pass"))
	assert.False(t, hasher.Matches("not-a-digest", "s3cret-pass"))
}
