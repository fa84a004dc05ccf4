package applicant

import (
	"time"

	"github.com/google/uuid"

	"github.com/schoolapply/registration-api/internal/database"
)

// Applicant is the domain model of a school applicant.
type Applicant struct {
	ID             uuid.UUID                 `json:"id"`
	Email          string                    `json:"email"`
	PasswordHash   string                    `json:"-"` // Never expose the digest in JSON
	Active         bool                      `json:"active"`
	EmailConfirmed bool                      `json:"email_confirmed"`
	StatusKey      string                    `json:"status_key"`
	Details        database.ApplicantDetails `json:"details"`
	Contacts       []database.Contact        `json:"contacts"`
	Applications   []Application             `json:"applications"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

// Application is one ranked school-track choice.
type Application struct {
	ID            uuid.UUID `json:"id"`
	SchoolClassID uuid.UUID `json:"school_class_id"`
	Priority      int       `json:"priority"`
	Title         string    `json:"title,omitempty"`
}

// mapDBApplicantToModel converts database model to domain model
func mapDBApplicantToModel(dba *database.Applicant) *Applicant {
	applications := make([]Application, 0, len(dba.Applications))
	for _, dbApp := range dba.Applications {
		app := Application{
			ID:            dbApp.ID,
			SchoolClassID: dbApp.SchoolClassID,
			Priority:      dbApp.Priority,
		}
		if dbApp.SchoolClass != nil {
			app.Title = dbApp.SchoolClass.Title
		}
		applications = append(applications, app)
	}

	return &Applicant{
		ID:             dba.ID,
		Email:          dba.Email,
		PasswordHash:   dba.PasswordHash,
		Active:         dba.Active,
		EmailConfirmed: dba.EmailConfirmed,
		StatusKey:      dba.StatusKey,
		Details:        dba.Details,
		Contacts:       dba.Contacts,
		Applications:   applications,
		CreatedAt:      dba.CreatedAt,
		UpdatedAt:      dba.UpdatedAt,
	}
}
