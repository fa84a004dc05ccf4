package auth

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

// Roles distinguish applicant-scoped sessions from administrative ones.
const (
	RoleApplicant      = "applicant"
	RoleAdministration = "administration"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpiredToken = errors.New("session token has expired")
)

// SessionClaims represents the claims stored in a session token
type SessionClaims struct {
	IdentityID string    `json:"identity_id"` // UUID stored as string in token
	Role       string    `json:"role"`
	IssuedAt   time.Time `json:"iat"`
	ExpiresAt  time.Time `json:"exp"`
}

// Session is the bearer credential handed to a verified identity.
type Session struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

// SessionIssuer turns a verified identity plus role into an opaque bearer
// token. Uses PASETO v4.local (symmetric encryption with XChaCha20-Poly1305).
type SessionIssuer struct {
	symmetricKey paseto.V4SymmetricKey
	duration     time.Duration
}

func NewSessionIssuer(symmetricKey []byte, duration time.Duration) (*SessionIssuer, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &SessionIssuer{
		symmetricKey: key,
		duration:     duration,
	}, nil
}

// Issue creates a session token for the given identity and role
func (s *SessionIssuer) Issue(identityID uuid.UUID, role string) (*Session, error) {
	if role != RoleApplicant && role != RoleAdministration {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(s.duration))
	token.SetString("identity_id", identityID.String())
	token.SetString("role", role)

	return &Session{
		Token:     token.V4Encrypt(s.symmetricKey, nil),
		TokenType: "Bearer",
		ExpiresIn: int64(s.duration.Seconds()),
	}, nil
}

// Verify validates a session token and returns the claims
func (s *SessionIssuer) Verify(tokenStr string) (*SessionClaims, error) {
	parser := paseto.NewParser()

	token, err := parser.ParseV4Local(s.symmetricKey, tokenStr, nil)
	if err != nil {
		// The parser checks expiration by default; distinguish expired from invalid
		if errors.Is(err, &paseto.RuleError{}) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	identityID, err := token.GetString("identity_id")
	if err != nil {
		return nil, ErrInvalidToken
	}

	role, err := token.GetString("role")
	if err != nil {
		return nil, ErrInvalidToken
	}

	issuedAt, err := token.GetIssuedAt()
	if err != nil {
		return nil, ErrInvalidToken
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &SessionClaims{
		IdentityID: identityID,
		Role:       role,
		IssuedAt:   issuedAt,
		ExpiresAt:  expiresAt,
	}, nil
}
