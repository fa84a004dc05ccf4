package confirm

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenCodec_EmptySecret(t *testing.T) {
	t.Parallel()

	_, err := NewTokenCodec(nil, time.Hour)
	require.Error(t, err)
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	codec, err := NewTokenCodec([]byte("confirm-secret"), time.Hour)
	require.NoError(t, err)

	token, err := codec.Encode("anna@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	email, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", email)
}

func TestTokenCodec_Expired(t *testing.T) {
	t.Parallel()

	codec, err := NewTokenCodec([]byte("confirm-secret"), -time.Minute)
	require.NoError(t, err)

	token, err := codec.Encode("anna@example.com")
	require.NoError(t, err)

	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenCodec_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenCodec([]byte("right-secret"), time.Hour)
	require.NoError(t, err)
	verifier, err := NewTokenCodec([]byte("wrong-secret"), time.Hour)
	require.NoError(t, err)

	token, err := issuer.Encode("anna@example.com")
	require.NoError(t, err)

	_, err = verifier.Decode(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenCodec_Malformed(t *testing.T) {
	t.Parallel()

	codec, err := NewTokenCodec([]byte("confirm-secret"), time.Hour)
	require.NoError(t, err)

	_, err = codec.Decode("not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenCodec_MissingSubject(t *testing.T) {
	t.Parallel()

	secret := []byte("confirm-secret")
	codec, err := NewTokenCodec(secret, time.Hour)
	require.NoError(t, err)

	// Correctly signed token without a subject claim
	now := time.Now()
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	token, err := raw.SignedString(secret)
	require.NoError(t, err)

	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenCodec_RejectsNoneAlgorithm(t *testing.T) {
	t.Parallel()

	codec, err := NewTokenCodec([]byte("confirm-secret"), time.Hour)
	require.NoError(t, err)

	raw := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "anna@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	token, err := raw.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
