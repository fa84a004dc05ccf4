package applicant

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolapply/registration-api/internal/credentials"
	"github.com/schoolapply/registration-api/internal/logging"
)

func newValidationService(t *testing.T) *Service {
	t.Helper()

	hasher, err := credentials.NewHasher([]byte("test-secret"))
	require.NoError(t, err)

	// Invalid payloads are rejected before any repository or workflow call,
	// so those collaborators stay nil here.
	return NewService(nil, hasher, nil, nil, nil, logging.NewLogger(true))
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Email:                "anna@example.com",
		Password:             "pass-123456",
		PasswordConfirmation: "pass-123456",
		Applications: []ApplicationInput{
			{SchoolClassID: uuid.New(), Priority: 1},
		},
	}
}

func TestRegister_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	service := newValidationService(t)

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"missing email", func(in *RegisterInput) { in.Email = "" }},
		{"malformed email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"short password", func(in *RegisterInput) {
			in.Password = "short"
			in.PasswordConfirmation = "short"
		}},
		{"confirmation mismatch", func(in *RegisterInput) { in.PasswordConfirmation = "different-pass" }},
		{"no applications", func(in *RegisterInput) { in.Applications = nil }},
		{"application without priority", func(in *RegisterInput) {
			in.Applications = []ApplicationInput{{SchoolClassID: uuid.New()}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			input := validRegisterInput()
			tt.mutate(&input)

			_, err := service.Register(context.Background(), input)
			require.Error(t, err)

			var validationErrs validator.ValidationErrors
			assert.ErrorAs(t, err, &validationErrs)
		})
	}
}

func TestFormatChoices(t *testing.T) {
	t.Parallel()

	// Choices render ordered by priority regardless of slice order
	choices := formatChoices([]Application{
		{Priority: 2, Title: "Elektronik"},
		{Priority: 1, Title: "Informatik"},
		{Priority: 3, Title: "Mechatronik"},
	})
	assert.Equal(t, "1: Informatik; 2: Elektronik; 3: Mechatronik", choices)
}

func TestFormatChoices_Empty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", formatChoices(nil))
}

func TestFormatChoices_FallsBackToClassID(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	choices := formatChoices([]Application{{Priority: 1, SchoolClassID: id}})
	assert.Equal(t, "1: "+id.String(), choices)
}
