package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdentityStore struct {
	identities map[string]*Identity
	err        error
}

func (f *fakeIdentityStore) CredentialsByEmail(_ context.Context, email string) (*Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	identity, ok := f.identities[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return identity, nil
}

func newTestVerifier(t *testing.T, identities map[string]*Identity) (*Verifier, *Hasher) {
	t.Helper()

	hasher, err := NewHasher([]byte("test-secret"))
	require.NoError(t, err)

	return NewVerifier(&fakeIdentityStore{identities: identities}, hasher), hasher
}

func TestVerify_Success(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	hasher, err := NewHasher([]byte("test-secret"))
	require.NoError(t, err)

	store := &fakeIdentityStore{identities: map[string]*Identity{
		"anna@example.com": {ID: id, PasswordHash: hasher.Hash("pass-123456"), Active: true},
	}}
	verifier := NewVerifier(store, hasher)

	got, err := verifier.Verify(context.Background(), "anna@example.com", "pass-123456")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestVerify_UnknownEmail(t *testing.T) {
	t.Parallel()

	verifier, _ := newTestVerifier(t, map[string]*Identity{})

	_, err := verifier.Verify(context.Background(), "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestVerify_EmailIsCaseSensitive(t *testing.T) {
	t.Parallel()

	hasher, err := NewHasher([]byte("test-secret"))
	require.NoError(t, err)

	verifier, _ := newTestVerifier(t, map[string]*Identity{
		"anna@example.com": {ID: uuid.New(), PasswordHash: hasher.Hash("pass-123456"), Active: true},
	})

	_, err = verifier.Verify(context.Background(), "Anna@Example.com", "pass-123456")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestVerify_InactiveBeforePasswordCheck(t *testing.T) {
	t.Parallel()

	hasher, err := NewHasher([]byte("test-secret"))
	require.NoError(t, err)

	verifier, _ := newTestVerifier(t, map[string]*Identity{
		"anna@example.com": {ID: uuid.New(), PasswordHash: hasher.Hash("pass-123456"), Active: false},
	})

	// A deactivated account reports not-active even with the correct password,
	// and identically with a wrong one. The response must not leak whether the
	// password matched.
	_, err = verifier.Verify(context.Background(), "anna@example.com", "pass-123456")
	assert.ErrorIs(t, err, ErrUserNotActive)

	_, err = verifier.Verify(context.Background(), "anna@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrUserNotActive)
}

func TestVerify_WrongPassword(t *testing.T) {
	t.Parallel()

	hasher, err := NewHasher([]byte("test-secret"))
	require.NoError(t, err)

	verifier, _ := newTestVerifier(t, map[string]*Identity{
		"anna@example.com": {ID: uuid.New(), PasswordHash: hasher.Hash("pass-123456"), Active: true},
	})

	_, err = verifier.Verify(context.Background(), "anna@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestVerify_StoreFailure(t *testing.T) {
	t.Parallel()

	hasher, err := NewHasher([]byte("test-secret"))
	require.NoError(t, err)

	storeErr := errors.New("connection refused")
	verifier := NewVerifier(&fakeIdentityStore{err: storeErr}, hasher)

	_, err = verifier.Verify(context.Background(), "anna@example.com", "pass-123456")
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}
