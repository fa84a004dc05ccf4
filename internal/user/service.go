package user

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/schoolapply/registration-api/internal/auth"
	"github.com/schoolapply/registration-api/internal/credentials"
	"github.com/schoolapply/registration-api/internal/logging"
)

// RegisterInput is the payload for creating an administrative user. The raw
// password is hashed and discarded inside Register.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8"`
}

// Service handles administrative-user business logic
type Service struct {
	repo     *Repository
	hasher   *credentials.Hasher
	verifier *credentials.Verifier
	sessions *auth.SessionIssuer
	validate *validator.Validate
	logger   *logging.Logger
}

func NewService(
	repo *Repository,
	hasher *credentials.Hasher,
	verifier *credentials.Verifier,
	sessions *auth.SessionIssuer,
	logger *logging.Logger,
) *Service {
	return &Service{
		repo:     repo,
		hasher:   hasher,
		verifier: verifier,
		sessions: sessions,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Register creates a new administrative user
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	passwordHash := s.hasher.Hash(input.Password)
	input.Password = ""

	created, err := s.repo.Create(ctx, input.Email, passwordHash)
	if err != nil {
		return nil, err
	}

	s.logger.Info("administrative user created", "user_id", created.ID)
	return created, nil
}

// SignIn verifies credentials and issues an administration-scoped session
func (s *Service) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	id, err := s.verifier.Verify(ctx, email, password)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Issue(id, auth.RoleAdministration)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	return session, nil
}

// GetOne retrieves a single user
func (s *Service) GetOne(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves all administrative users
func (s *Service) List(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}
