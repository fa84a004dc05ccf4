package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound  = errors.New("no account exists for this email")
	ErrUserNotActive = errors.New("account is deactivated")
	ErrWrongPassword = errors.New("wrong password")
)

// Identity is the minimal credential view of a stored account. It never
// leaves this package: Verify returns only the id.
type Identity struct {
	ID           uuid.UUID
	PasswordHash string
	Active       bool
}

// IdentityStore resolves credentials by email. Lookups are exact-match and
// case-sensitive; implementations return ErrUserNotFound when no account
// matches.
type IdentityStore interface {
	CredentialsByEmail(ctx context.Context, email string) (*Identity, error)
}

// Verifier checks an email/password pair against the store.
type Verifier struct {
	store  IdentityStore
	hasher *Hasher
}

func NewVerifier(store IdentityStore, hasher *Hasher) *Verifier {
	return &Verifier{store: store, hasher: hasher}
}

// Verify resolves email and password to an account id. The outcome is exactly
// one of: the id, ErrUserNotFound, ErrUserNotActive or ErrWrongPassword.
//
// The active check runs before any password comparison so that a deactivated
// account never reveals whether the supplied password was correct. Verify has
// no side effects: no lockout counters, no throttling.
func (v *Verifier) Verify(ctx context.Context, email, password string) (uuid.UUID, error) {
	identity, err := v.store.CredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return uuid.Nil, ErrUserNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to look up credentials: %w", err)
	}

	if !identity.Active {
		return uuid.Nil, ErrUserNotActive
	}

	if !v.hasher.Matches(identity.PasswordHash, password) {
		return uuid.Nil, ErrWrongPassword
	}

	return identity.ID, nil
}
