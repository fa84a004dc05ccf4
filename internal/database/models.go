package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Applicant is the database model for a school applicant.
type Applicant struct {
	bun.BaseModel `bun:"table:applicants,alias:a"`

	ID             uuid.UUID        `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email          string           `bun:"email,notnull,unique"`
	PasswordHash   string           `bun:"password_hash,notnull"`
	Active         bool             `bun:"active,notnull,default:true"`
	EmailConfirmed bool             `bun:"email_confirmed,notnull,default:false"`
	StatusKey      string           `bun:"status_key,notnull,default:'new'"`
	Details        ApplicantDetails `bun:"details,type:jsonb"`
	Contacts       []Contact        `bun:"contacts,type:jsonb"`
	Applications   []*Application   `bun:"rel:has-many,join:id=applicant_id"`
	CreatedAt      time.Time        `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time        `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// ApplicantDetails holds personal data collected by the registration form.
// Stored as a JSONB document; the shape mirrors the form sections.
type ApplicantDetails struct {
	Firstname          string `json:"firstname"`
	Lastname           string `json:"lastname"`
	Birthdate          string `json:"birthdate,omitempty"`
	Birthplace         string `json:"birthplace,omitempty"`
	Nationality        string `json:"nationality,omitempty"`
	Religion           string `json:"religion,omitempty"`
	PreviousSchool     string `json:"previousSchool,omitempty"`
	SecondChoiceSchool string `json:"secondChoiceSchool,omitempty"`
}

// Contact is a guardian or parent contact attached to an applicant.
type Contact struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Street    string `json:"street,omitempty"`
	Zip       string `json:"zip,omitempty"`
	City      string `json:"city,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Application is one ranked school-track choice of an applicant.
type Application struct {
	bun.BaseModel `bun:"table:applications,alias:ap"`

	ID            uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	ApplicantID   uuid.UUID `bun:"applicant_id,notnull,type:uuid"`
	SchoolClassID uuid.UUID `bun:"school_class_id,notnull,type:uuid"`
	Priority      int       `bun:"priority,notnull"`

	SchoolClass *SchoolClass `bun:"rel:belongs-to,join:school_class_id=id"`
}

// User is an administrative account. Administrative users are created by other
// administrators and carry no email-confirmation state.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Active       bool      `bun:"active,notnull,default:true"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// SchoolClass is a school track applicants can apply for.
type SchoolClass struct {
	bun.BaseModel `bun:"table:school_classes,alias:sc"`

	ID          uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Title       string    `bun:"title,notnull"`
	Description string    `bun:"description"`
}

// ApplicantStatus is a catalogue entry for the processing state of an applicant.
type ApplicantStatus struct {
	bun.BaseModel `bun:"table:applicant_statuses,alias:st"`

	Key   string `bun:"key,pk"`
	Title string `bun:"title,notnull"`
}
