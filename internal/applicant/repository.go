package applicant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/schoolapply/registration-api/internal/database"
)

var (
	ErrNotFound         = errors.New("applicant not found")
	ErrDuplicateEmail   = errors.New("email already exists")
	ErrAlreadyConfirmed = errors.New("applicant email already confirmed")
)

// Repository handles applicant persistence. Email lookups are exact-match
// and case-sensitive.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new applicant with their ranked applications in one
// transaction. The email_confirmed flag always starts false.
func (r *Repository) Create(ctx context.Context, a *Applicant) (*Applicant, error) {
	dbApplicant := &database.Applicant{
		Email:          a.Email,
		PasswordHash:   a.PasswordHash,
		Active:         true,
		EmailConfirmed: false,
		StatusKey:      "new",
		Details:        a.Details,
		Contacts:       a.Contacts,
	}

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().
			Model(dbApplicant).
			Returning("*").
			Exec(ctx); err != nil {
			return err
		}

		if len(a.Applications) == 0 {
			return nil
		}

		dbApps := make([]*database.Application, 0, len(a.Applications))
		for _, app := range a.Applications {
			dbApps = append(dbApps, &database.Application{
				ApplicantID:   dbApplicant.ID,
				SchoolClassID: app.SchoolClassID,
				Priority:      app.Priority,
			})
		}

		_, err := tx.NewInsert().
			Model(&dbApps).
			Returning("*").
			Exec(ctx)
		return err
	})

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create applicant: %w", err)
	}

	return r.GetByID(ctx, dbApplicant.ID)
}

// GetByID retrieves an applicant with their ranked applications
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Applicant, error) {
	dbApplicant := new(database.Applicant)
	err := r.db.NewSelect().
		Model(dbApplicant).
		Relation("Applications").
		Relation("Applications.SchoolClass").
		Where("a.id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get applicant by id: %w", err)
	}

	return mapDBApplicantToModel(dbApplicant), nil
}

// GetByEmail retrieves an applicant by email (exact match)
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Applicant, error) {
	dbApplicant := new(database.Applicant)
	err := r.db.NewSelect().
		Model(dbApplicant).
		Relation("Applications").
		Relation("Applications.SchoolClass").
		Where("a.email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get applicant by email: %w", err)
	}

	return mapDBApplicantToModel(dbApplicant), nil
}

// List retrieves applicants. Unless includeCompleted is set, applicants whose
// status is completed are filtered out. search matches against names and
// email.
func (r *Repository) List(ctx context.Context, search string, includeCompleted bool) ([]*Applicant, error) {
	var dbApplicants []*database.Applicant

	q := r.db.NewSelect().
		Model(&dbApplicants).
		Relation("Applications").
		Relation("Applications.SchoolClass").
		Order("a.created_at DESC")

	if !includeCompleted {
		q = q.Where("a.status_key != ?", "completed")
	}

	if search != "" {
		pattern := "%" + search + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("a.details->>'firstname' ILIKE ?", pattern).
				WhereOr("a.details->>'lastname' ILIKE ?", pattern).
				WhereOr("a.email ILIKE ?", pattern)
		})
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list applicants: %w", err)
	}

	applicants := make([]*Applicant, 0, len(dbApplicants))
	for _, dba := range dbApplicants {
		applicants = append(applicants, mapDBApplicantToModel(dba))
	}

	return applicants, nil
}

// ListByStatus retrieves applicants filtered by status key, for the CSV export.
func (r *Repository) ListByStatus(ctx context.Context, statusKey string) ([]*Applicant, error) {
	var dbApplicants []*database.Applicant

	q := r.db.NewSelect().
		Model(&dbApplicants).
		Relation("Applications").
		Relation("Applications.SchoolClass").
		Order("a.created_at ASC")

	if statusKey != "" {
		q = q.Where("a.status_key = ?", statusKey)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list applicants by status: %w", err)
	}

	applicants := make([]*Applicant, 0, len(dbApplicants))
	for _, dba := range dbApplicants {
		applicants = append(applicants, mapDBApplicantToModel(dba))
	}

	return applicants, nil
}

// Update applies a partial update: details, contacts, status and the replaced
// set of ranked applications. Credentials and confirmation state are not
// touched here.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, a *Applicant) (*Applicant, error) {
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewUpdate().
			Model((*database.Applicant)(nil)).
			Set("details = ?", a.Details).
			Set("contacts = ?", a.Contacts).
			Set("status_key = ?", a.StatusKey).
			Set("active = ?", a.Active).
			Set("updated_at = NOW()").
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return ErrNotFound
		}

		if _, err := tx.NewDelete().
			Model((*database.Application)(nil)).
			Where("applicant_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}

		if len(a.Applications) == 0 {
			return nil
		}

		dbApps := make([]*database.Application, 0, len(a.Applications))
		for _, app := range a.Applications {
			dbApps = append(dbApps, &database.Application{
				ApplicantID:   id,
				SchoolClassID: app.SchoolClassID,
				Priority:      app.Priority,
			})
		}

		_, err = tx.NewInsert().
			Model(&dbApps).
			Exec(ctx)
		return err
	})

	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update applicant: %w", err)
	}

	return r.GetByID(ctx, id)
}

// Delete removes an applicant and their applications
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*database.Application)(nil)).
			Where("applicant_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}

		result, err := tx.NewDelete().
			Model((*database.Applicant)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return ErrNotFound
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete applicant: %w", err)
	}

	return nil
}

// ConfirmEmail flips email_confirmed from false to true as a single
// conditional update. Zero affected rows on an existing applicant means a
// concurrent or repeated confirmation won the race and the caller gets
// ErrAlreadyConfirmed; exactly one confirmation ever succeeds.
func (r *Repository) ConfirmEmail(ctx context.Context, id uuid.UUID) (*Applicant, error) {
	result, err := r.db.NewUpdate().
		Model((*database.Applicant)(nil)).
		Set("email_confirmed = ?", true).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Where("email_confirmed = ?", false).
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to confirm email: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		exists, err := r.db.NewSelect().
			Model((*database.Applicant)(nil)).
			Where("id = ?", id).
			Exists(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to check applicant existence: %w", err)
		}
		if exists {
			return nil, ErrAlreadyConfirmed
		}
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, id)
}
