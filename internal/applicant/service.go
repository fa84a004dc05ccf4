package applicant

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/schoolapply/registration-api/internal/auth"
	"github.com/schoolapply/registration-api/internal/confirm"
	"github.com/schoolapply/registration-api/internal/credentials"
	"github.com/schoolapply/registration-api/internal/database"
	"github.com/schoolapply/registration-api/internal/logging"
)

// RegisterInput is the payload of a new registration. The raw password and
// its confirmation are hashed and discarded inside Register; they never reach
// the repository.
type RegisterInput struct {
	Email                string                    `json:"email" validate:"required,email,max=254"`
	Password             string                    `json:"password" validate:"required,min=8"`
	PasswordConfirmation string                    `json:"passwordConfirmation" validate:"required,eqfield=Password"`
	Details              database.ApplicantDetails `json:"details"`
	Contacts             []database.Contact        `json:"contacts"`
	Applications         []ApplicationInput        `json:"applications" validate:"required,min=1,dive"`
}

// ApplicationInput is one ranked track choice in a registration or update.
type ApplicationInput struct {
	SchoolClassID uuid.UUID `json:"school_class_id" validate:"required"`
	Priority      int       `json:"priority" validate:"required,min=1"`
}

// UpdateInput is the payload of a partial applicant update.
type UpdateInput struct {
	Details      database.ApplicantDetails `json:"details"`
	Contacts     []database.Contact        `json:"contacts"`
	StatusKey    string                    `json:"status_key" validate:"required"`
	Active       bool                      `json:"active"`
	Applications []ApplicationInput        `json:"applications" validate:"required,min=1,dive"`
}

// Service handles applicant business logic
type Service struct {
	repo     *Repository
	hasher   *credentials.Hasher
	verifier *credentials.Verifier
	workflow *confirm.Workflow
	sessions *auth.SessionIssuer
	validate *validator.Validate
	logger   *logging.Logger
}

func NewService(
	repo *Repository,
	hasher *credentials.Hasher,
	verifier *credentials.Verifier,
	workflow *confirm.Workflow,
	sessions *auth.SessionIssuer,
	logger *logging.Logger,
) *Service {
	return &Service{
		repo:     repo,
		hasher:   hasher,
		verifier: verifier,
		workflow: workflow,
		sessions: sessions,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Register creates a new applicant and dispatches a confirmation link.
// A failed dispatch does not fail the registration; the applicant can
// request a fresh link later.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Applicant, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	passwordHash := s.hasher.Hash(input.Password)
	input.Password = ""
	input.PasswordConfirmation = ""

	applications := make([]Application, 0, len(input.Applications))
	for _, app := range input.Applications {
		applications = append(applications, Application{
			SchoolClassID: app.SchoolClassID,
			Priority:      app.Priority,
		})
	}

	created, err := s.repo.Create(ctx, &Applicant{
		Email:        input.Email,
		PasswordHash: passwordHash,
		Details:      input.Details,
		Contacts:     input.Contacts,
		Applications: applications,
	})
	if err != nil {
		return nil, err
	}

	if err := s.workflow.SendVerificationLink(ctx, created.Email); err != nil {
		s.logger.Warn("failed to send confirmation link after registration",
			"applicant_id", created.ID, "error", err)
	}

	s.logger.Info("applicant registered", "applicant_id", created.ID)
	return created, nil
}

// SignIn verifies credentials and issues an applicant-scoped session
func (s *Service) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	id, err := s.verifier.Verify(ctx, email, password)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Issue(id, auth.RoleApplicant)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	return session, nil
}

// Confirm runs the email-confirmation workflow and returns the confirmed
// applicant.
func (s *Service) Confirm(ctx context.Context, token string) (*Applicant, error) {
	identity, err := s.workflow.ConfirmEmail(ctx, token)
	if err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, identity.ID)
}

// ResendConfirmation dispatches a fresh confirmation link for an applicant
func (s *Service) ResendConfirmation(ctx context.Context, id uuid.UUID) error {
	return s.workflow.ResendVerificationLink(ctx, id)
}

// GetOne retrieves a single applicant
func (s *Service) GetOne(ctx context.Context, id uuid.UUID) (*Applicant, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves applicants for the administration view
func (s *Service) List(ctx context.Context, search string, includeCompleted bool) ([]*Applicant, error) {
	return s.repo.List(ctx, search, includeCompleted)
}

// Update applies a partial update to an applicant
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Applicant, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	applications := make([]Application, 0, len(input.Applications))
	for _, app := range input.Applications {
		applications = append(applications, Application{
			SchoolClassID: app.SchoolClassID,
			Priority:      app.Priority,
		})
	}

	return s.repo.Update(ctx, id, &Applicant{
		Details:      input.Details,
		Contacts:     input.Contacts,
		StatusKey:    input.StatusKey,
		Active:       input.Active,
		Applications: applications,
	})
}

// Delete removes an applicant
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// ExportCSV renders applicants (optionally filtered by status) as CSV for
// the administration office.
func (s *Service) ExportCSV(ctx context.Context, statusKey string) ([]byte, error) {
	applicants, err := s.repo.ListByStatus(ctx, statusKey)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"id", "email", "firstname", "lastname", "status",
		"active", "email_confirmed", "choices", "second_choice_school", "created_at",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, a := range applicants {
		record := []string{
			a.ID.String(),
			a.Email,
			a.Details.Firstname,
			a.Details.Lastname,
			a.StatusKey,
			strconv.FormatBool(a.Active),
			strconv.FormatBool(a.EmailConfirmed),
			formatChoices(a.Applications),
			a.Details.SecondChoiceSchool,
			a.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}

	return buf.Bytes(), nil
}

// formatChoices renders ranked applications as "1: Informatik; 2: Elektronik"
func formatChoices(applications []Application) string {
	sorted := make([]Application, len(applications))
	copy(sorted, applications)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	parts := make([]string, 0, len(sorted))
	for _, app := range sorted {
		title := app.Title
		if title == "" {
			title = app.SchoolClassID.String()
		}
		parts = append(parts, fmt.Sprintf("%d: %s", app.Priority, title))
	}

	return strings.Join(parts, "; ")
}
