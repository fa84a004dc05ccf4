package auth

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = bytes.Repeat([]byte("k"), 32)

func TestNewSessionIssuer_KeyLength(t *testing.T) {
	t.Parallel()

	_, err := NewSessionIssuer([]byte("too-short"), time.Hour)
	require.Error(t, err)

	_, err = NewSessionIssuer(testKey, time.Hour)
	require.NoError(t, err)
}

func TestSessionIssuer_IssueAndVerify(t *testing.T) {
	t.Parallel()

	issuer, err := NewSessionIssuer(testKey, time.Hour)
	require.NoError(t, err)

	id := uuid.New()
	for _, role := range []string{RoleApplicant, RoleAdministration} {
		session, err := issuer.Issue(id, role)
		require.NoError(t, err)
		assert.Equal(t, "Bearer", session.TokenType)
		assert.Equal(t, int64(3600), session.ExpiresIn)

		claims, err := issuer.Verify(session.Token)
		require.NoError(t, err)
		assert.Equal(t, id.String(), claims.IdentityID)
		assert.Equal(t, role, claims.Role)
		assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
	}
}

func TestSessionIssuer_UnknownRole(t *testing.T) {
	t.Parallel()

	issuer, err := NewSessionIssuer(testKey, time.Hour)
	require.NoError(t, err)

	_, err = issuer.Issue(uuid.New(), "superuser")
	assert.Error(t, err)
}

func TestSessionIssuer_VerifyGarbage(t *testing.T) {
	t.Parallel()

	issuer, err := NewSessionIssuer(testKey, time.Hour)
	require.NoError(t, err)

	_, err = issuer.Verify("v4.local.garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionIssuer_VerifyWrongKey(t *testing.T) {
	t.Parallel()

	issuer, err := NewSessionIssuer(testKey, time.Hour)
	require.NoError(t, err)
	other, err := NewSessionIssuer(bytes.Repeat([]byte("x"), 32), time.Hour)
	require.NoError(t, err)

	session, err := issuer.Issue(uuid.New(), RoleApplicant)
	require.NoError(t, err)

	_, err = other.Verify(session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionIssuer_VerifyExpired(t *testing.T) {
	t.Parallel()

	issuer, err := NewSessionIssuer(testKey, -time.Minute)
	require.NoError(t, err)

	session, err := issuer.Issue(uuid.New(), RoleApplicant)
	require.NoError(t, err)

	_, err = issuer.Verify(session.Token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
