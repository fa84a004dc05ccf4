package confirm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/schoolapply/registration-api/internal/logging"
)

var (
	// ErrAlreadyConfirmed is returned when a confirmation is attempted on an
	// identity whose email is already confirmed. Repeated confirmation is an
	// error, not a no-op: it signals stale or replayed client state.
	ErrAlreadyConfirmed = errors.New("email is already confirmed")

	// ErrCooldownActive is returned when a resend is requested before the
	// per-email cooldown from the previous dispatch has elapsed.
	ErrCooldownActive = errors.New("confirmation mail cooldown active")

	ErrIdentityNotFound = errors.New("identity not found")
)

// Identity is the confirmation-relevant view of a stored account.
type Identity struct {
	ID        uuid.UUID
	Email     string
	Confirmed bool
}

// IdentityStore is the persistence boundary of the confirmation workflow.
//
// ConfirmEmail must flip the confirmed flag with a single conditional update
// ("set confirmed where not confirmed"): under concurrent confirmation
// attempts for the same identity exactly one call succeeds and the others
// return ErrAlreadyConfirmed.
type IdentityStore interface {
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Identity, error)
	ConfirmEmail(ctx context.Context, id uuid.UUID) (*Identity, error)
}

// Mailer dispatches confirmation links. Transient delivery failures are the
// mail transport's concern; the workflow reports them to the caller.
type Mailer interface {
	SendConfirmationLink(ctx context.Context, toEmail, token string) error
}

// CooldownGuard throttles repeated mail dispatch to the same address. Guard
// failures never block a resend; they are logged and the dispatch proceeds.
type CooldownGuard interface {
	CheckEmailCooldown(ctx context.Context, email string) (bool, error)
	SetEmailCooldown(ctx context.Context, email string) error
}

// Workflow orchestrates link issuance, token decoding and the
// unconfirmed-to-confirmed transition.
type Workflow struct {
	store     IdentityStore
	codec     *TokenCodec
	mailer    Mailer
	cooldowns CooldownGuard
	logger    *logging.Logger
	opTimeout time.Duration
}

func NewWorkflow(store IdentityStore, codec *TokenCodec, mailer Mailer, cooldowns CooldownGuard, logger *logging.Logger, opTimeout time.Duration) *Workflow {
	return &Workflow{
		store:     store,
		codec:     codec,
		mailer:    mailer,
		cooldowns: cooldowns,
		logger:    logger,
		opTimeout: opTimeout,
	}
}

// SendVerificationLink issues a fresh token for email and dispatches it.
// It does not touch the store.
func (w *Workflow) SendVerificationLink(ctx context.Context, email string) error {
	token, err := w.codec.Encode(email)
	if err != nil {
		return fmt.Errorf("failed to encode confirmation token: %w", err)
	}

	mailCtx, cancel := context.WithTimeout(ctx, w.opTimeout)
	defer cancel()

	if err := w.mailer.SendConfirmationLink(mailCtx, email, token); err != nil {
		return fmt.Errorf("failed to dispatch confirmation mail: %w", err)
	}

	w.logger.Info("confirmation link dispatched", "email", email)
	return nil
}

// ConfirmEmail decodes token and flips the identity it names to confirmed.
// Failures are ErrTokenExpired, ErrTokenInvalid or ErrAlreadyConfirmed.
// A valid token naming an unknown identity surfaces as ErrTokenInvalid so
// that stale tokens do not reveal whether an account ever existed.
func (w *Workflow) ConfirmEmail(ctx context.Context, token string) (*Identity, error) {
	email, err := w.codec.Decode(token)
	if err != nil {
		return nil, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, w.opTimeout)
	defer cancel()

	identity, err := w.store.FindByEmail(storeCtx, email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to look up identity: %w", err)
	}

	// The store performs the check-then-set as one conditional update, so two
	// racing confirmations cannot both succeed.
	confirmed, err := w.store.ConfirmEmail(storeCtx, identity.ID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}

	w.logger.Info("email confirmed", "identity_id", confirmed.ID)
	return confirmed, nil
}

// ResendVerificationLink dispatches a fresh link for an existing identity.
// Already-confirmed identities fail with ErrAlreadyConfirmed before any mail
// is sent, so confirmed accounts cannot be spammed with links. A resend inside
// the cooldown window of the previous one fails with ErrCooldownActive.
func (w *Workflow) ResendVerificationLink(ctx context.Context, id uuid.UUID) error {
	storeCtx, cancel := context.WithTimeout(ctx, w.opTimeout)
	defer cancel()

	identity, err := w.store.FindByID(storeCtx, id)
	if err != nil {
		return err
	}

	if identity.Confirmed {
		return ErrAlreadyConfirmed
	}

	onCooldown, err := w.cooldowns.CheckEmailCooldown(storeCtx, identity.Email)
	if err != nil {
		w.logger.Error("failed to check email cooldown", "error", err.Error())
		// Continue despite error to avoid blocking legitimate requests
	} else if onCooldown {
		return ErrCooldownActive
	}

	if err := w.SendVerificationLink(ctx, identity.Email); err != nil {
		return err
	}

	if err := w.cooldowns.SetEmailCooldown(storeCtx, identity.Email); err != nil {
		w.logger.Error("failed to set email cooldown", "error", err.Error())
	}

	return nil
}
