package confirm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolapply/registration-api/internal/logging"
)

// fakeStore keeps identities in memory. ConfirmEmail performs the same
// conditional flip a single SQL update would: check and set under one lock.
type fakeStore struct {
	mu         sync.Mutex
	identities map[uuid.UUID]*Identity
}

func newFakeStore(identities ...*Identity) *fakeStore {
	store := &fakeStore{identities: make(map[uuid.UUID]*Identity)}
	for _, identity := range identities {
		store.identities[identity.ID] = identity
	}
	return store
}

func (f *fakeStore) FindByEmail(_ context.Context, email string) (*Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, identity := range f.identities {
		if identity.Email == email {
			copied := *identity
			return &copied, nil
		}
	}
	return nil, ErrIdentityNotFound
}

func (f *fakeStore) FindByID(_ context.Context, id uuid.UUID) (*Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	identity, ok := f.identities[id]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	copied := *identity
	return &copied, nil
}

func (f *fakeStore) ConfirmEmail(_ context.Context, id uuid.UUID) (*Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	identity, ok := f.identities[id]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	if identity.Confirmed {
		return nil, ErrAlreadyConfirmed
	}
	identity.Confirmed = true
	copied := *identity
	return &copied, nil
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []string // recipient emails in dispatch order
	err   error
	token string // last token handed to the mailer
}

func (f *fakeMailer) SendConfirmationLink(_ context.Context, toEmail, token string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, toEmail)
	f.token = token
	return nil
}

// fakeCooldown tracks cooled-down addresses in memory.
type fakeCooldown struct {
	mu     sync.Mutex
	cooled map[string]bool
	err    error
}

func newFakeCooldown() *fakeCooldown {
	return &fakeCooldown{cooled: make(map[string]bool)}
}

func (f *fakeCooldown) CheckEmailCooldown(_ context.Context, email string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cooled[email], nil
}

func (f *fakeCooldown) SetEmailCooldown(_ context.Context, email string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cooled[email] = true
	return nil
}

func newTestWorkflow(t *testing.T, store IdentityStore, mailer Mailer) *Workflow {
	t.Helper()

	codec, err := NewTokenCodec([]byte("confirm-secret"), time.Hour)
	require.NoError(t, err)

	return NewWorkflow(store, codec, mailer, newFakeCooldown(), logging.NewLogger(true), 5*time.Second)
}

func TestSendVerificationLink(t *testing.T) {
	t.Parallel()

	mailer := &fakeMailer{}
	workflow := newTestWorkflow(t, newFakeStore(), mailer)

	err := workflow.SendVerificationLink(context.Background(), "anna@example.com")
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "anna@example.com", mailer.sent[0])

	// The dispatched token decodes back to the same address
	email, err := workflow.codec.Decode(mailer.token)
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", email)
}

func TestSendVerificationLink_MailerFailure(t *testing.T) {
	t.Parallel()

	mailErr := errors.New("smtp unavailable")
	workflow := newTestWorkflow(t, newFakeStore(), &fakeMailer{err: mailErr})

	err := workflow.SendVerificationLink(context.Background(), "anna@example.com")
	assert.ErrorIs(t, err, mailErr)
}

func TestConfirmEmail_Success(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	store := newFakeStore(&Identity{ID: id, Email: "anna@example.com"})
	workflow := newTestWorkflow(t, store, &fakeMailer{})

	token, err := workflow.codec.Encode("anna@example.com")
	require.NoError(t, err)

	confirmed, err := workflow.ConfirmEmail(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, id, confirmed.ID)
	assert.True(t, confirmed.Confirmed)

	stored, err := store.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, stored.Confirmed)
}

func TestConfirmEmail_SecondAttemptFails(t *testing.T) {
	t.Parallel()

	store := newFakeStore(&Identity{ID: uuid.New(), Email: "anna@example.com"})
	workflow := newTestWorkflow(t, store, &fakeMailer{})

	token, err := workflow.codec.Encode("anna@example.com")
	require.NoError(t, err)

	_, err = workflow.ConfirmEmail(context.Background(), token)
	require.NoError(t, err)

	// Replaying the same valid token fails loudly, it is not a silent no-op
	_, err = workflow.ConfirmEmail(context.Background(), token)
	assert.ErrorIs(t, err, ErrAlreadyConfirmed)
}

func TestConfirmEmail_ConcurrentAttemptsConfirmOnce(t *testing.T) {
	t.Parallel()

	store := newFakeStore(&Identity{ID: uuid.New(), Email: "anna@example.com"})
	workflow := newTestWorkflow(t, store, &fakeMailer{})

	token, err := workflow.codec.Encode("anna@example.com")
	require.NoError(t, err)

	const attempts = 16
	results := make(chan error, attempts)
	var start sync.WaitGroup
	start.Add(1)

	for range attempts {
		go func() {
			start.Wait()
			_, err := workflow.ConfirmEmail(context.Background(), token)
			results <- err
		}()
	}
	start.Done()

	var succeeded, alreadyConfirmed int
	for range attempts {
		switch err := <-results; {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrAlreadyConfirmed):
			alreadyConfirmed++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, alreadyConfirmed)
}

func TestConfirmEmail_UnknownEmail(t *testing.T) {
	t.Parallel()

	workflow := newTestWorkflow(t, newFakeStore(), &fakeMailer{})

	// A valid token for an address with no account must not reveal that the
	// account is missing; it reads as an invalid token.
	token, err := workflow.codec.Encode("ghost@example.com")
	require.NoError(t, err)

	_, err = workflow.ConfirmEmail(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestConfirmEmail_BadToken(t *testing.T) {
	t.Parallel()

	workflow := newTestWorkflow(t, newFakeStore(), &fakeMailer{})

	_, err := workflow.ConfirmEmail(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestConfirmEmail_ExpiredToken(t *testing.T) {
	t.Parallel()

	store := newFakeStore(&Identity{ID: uuid.New(), Email: "anna@example.com"})
	workflow := newTestWorkflow(t, store, &fakeMailer{})

	expiredCodec, err := NewTokenCodec([]byte("confirm-secret"), -time.Minute)
	require.NoError(t, err)
	token, err := expiredCodec.Encode("anna@example.com")
	require.NoError(t, err)

	_, err = workflow.ConfirmEmail(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestResendVerificationLink(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	store := newFakeStore(&Identity{ID: id, Email: "anna@example.com"})
	mailer := &fakeMailer{}
	workflow := newTestWorkflow(t, store, mailer)

	err := workflow.ResendVerificationLink(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "anna@example.com", mailer.sent[0])
}

func TestResendVerificationLink_AlreadyConfirmed(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	store := newFakeStore(&Identity{ID: id, Email: "anna@example.com", Confirmed: true})
	mailer := &fakeMailer{}
	workflow := newTestWorkflow(t, store, mailer)

	err := workflow.ResendVerificationLink(context.Background(), id)
	assert.ErrorIs(t, err, ErrAlreadyConfirmed)
	assert.Empty(t, mailer.sent)
}

func TestResendVerificationLink_SetsCooldown(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	store := newFakeStore(&Identity{ID: id, Email: "anna@example.com"})
	mailer := &fakeMailer{}
	codec, err := NewTokenCodec([]byte("confirm-secret"), time.Hour)
	require.NoError(t, err)
	workflow := NewWorkflow(store, codec, mailer, newFakeCooldown(), logging.NewLogger(true), 5*time.Second)

	require.NoError(t, workflow.ResendVerificationLink(context.Background(), id))
	require.Len(t, mailer.sent, 1)

	// An immediate second resend hits the cooldown from the first dispatch
	err = workflow.ResendVerificationLink(context.Background(), id)
	assert.ErrorIs(t, err, ErrCooldownActive)
	assert.Len(t, mailer.sent, 1)
}

func TestResendVerificationLink_CooldownActive(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	store := newFakeStore(&Identity{ID: id, Email: "anna@example.com"})
	mailer := &fakeMailer{}
	cooldowns := newFakeCooldown()
	require.NoError(t, cooldowns.SetEmailCooldown(context.Background(), "anna@example.com"))

	codec, err := NewTokenCodec([]byte("confirm-secret"), time.Hour)
	require.NoError(t, err)
	workflow := NewWorkflow(store, codec, mailer, cooldowns, logging.NewLogger(true), 5*time.Second)

	err = workflow.ResendVerificationLink(context.Background(), id)
	assert.ErrorIs(t, err, ErrCooldownActive)
	assert.Empty(t, mailer.sent)
}

func TestResendVerificationLink_GuardFailureDoesNotBlock(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	store := newFakeStore(&Identity{ID: id, Email: "anna@example.com"})
	mailer := &fakeMailer{}
	cooldowns := newFakeCooldown()
	cooldowns.err = errors.New("redis unavailable")

	codec, err := NewTokenCodec([]byte("confirm-secret"), time.Hour)
	require.NoError(t, err)
	workflow := NewWorkflow(store, codec, mailer, cooldowns, logging.NewLogger(true), 5*time.Second)

	// A broken guard must not stop the link from going out
	require.NoError(t, workflow.ResendVerificationLink(context.Background(), id))
	require.Len(t, mailer.sent, 1)
}

func TestResendVerificationLink_UnknownIdentity(t *testing.T) {
	t.Parallel()

	workflow := newTestWorkflow(t, newFakeStore(), &fakeMailer{})

	err := workflow.ResendVerificationLink(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrIdentityNotFound)
}

// The full happy path: a link is dispatched at registration time, the
// recipient follows it, and the account flips to confirmed exactly once.
func TestRegistrationConfirmationScenario(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	store := newFakeStore(&Identity{ID: id, Email: "anna@example.com"})
	mailer := &fakeMailer{}
	workflow := newTestWorkflow(t, store, mailer)

	require.NoError(t, workflow.SendVerificationLink(context.Background(), "anna@example.com"))
	require.Len(t, mailer.sent, 1)

	confirmed, err := workflow.ConfirmEmail(context.Background(), mailer.token)
	require.NoError(t, err)
	assert.Equal(t, id, confirmed.ID)
	assert.True(t, confirmed.Confirmed)

	// Resending after confirmation is refused
	err = workflow.ResendVerificationLink(context.Background(), id)
	assert.ErrorIs(t, err, ErrAlreadyConfirmed)
}
