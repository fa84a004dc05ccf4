package applicant

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/schoolapply/registration-api/internal/confirm"
	"github.com/schoolapply/registration-api/internal/credentials"
)

// CredentialStore adapts the repository to the credential verifier. Only the
// credential view of an applicant crosses this boundary; the digest never
// travels further than the verifier.
type CredentialStore struct {
	repo *Repository
}

func NewCredentialStore(repo *Repository) *CredentialStore {
	return &CredentialStore{repo: repo}
}

func (s *CredentialStore) CredentialsByEmail(ctx context.Context, email string) (*credentials.Identity, error) {
	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, credentials.ErrUserNotFound
		}
		return nil, err
	}

	return &credentials.Identity{
		ID:           a.ID,
		PasswordHash: a.PasswordHash,
		Active:       a.Active,
	}, nil
}

// ConfirmStore adapts the repository to the email-confirmation workflow.
type ConfirmStore struct {
	repo *Repository
}

func NewConfirmStore(repo *Repository) *ConfirmStore {
	return &ConfirmStore{repo: repo}
}

func (s *ConfirmStore) FindByEmail(ctx context.Context, email string) (*confirm.Identity, error) {
	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, confirm.ErrIdentityNotFound
		}
		return nil, err
	}

	return confirmIdentity(a), nil
}

func (s *ConfirmStore) FindByID(ctx context.Context, id uuid.UUID) (*confirm.Identity, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, confirm.ErrIdentityNotFound
		}
		return nil, err
	}

	return confirmIdentity(a), nil
}

func (s *ConfirmStore) ConfirmEmail(ctx context.Context, id uuid.UUID) (*confirm.Identity, error) {
	a, err := s.repo.ConfirmEmail(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyConfirmed):
			return nil, confirm.ErrAlreadyConfirmed
		case errors.Is(err, ErrNotFound):
			return nil, confirm.ErrIdentityNotFound
		}
		return nil, err
	}

	return confirmIdentity(a), nil
}

func confirmIdentity(a *Applicant) *confirm.Identity {
	return &confirm.Identity{
		ID:        a.ID,
		Email:     a.Email,
		Confirmed: a.EmailConfirmed,
	}
}
