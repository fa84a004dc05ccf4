package confirm

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("confirmation token has expired")
	ErrTokenInvalid = errors.New("confirmation token is invalid")
)

// TokenCodec encodes and decodes signed, expiring confirmation tokens.
// A token is a JWT (HS256) whose subject is the email address being proven.
// Tokens are never persisted; validity is entirely a function of signature
// and expiry.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenCodec(secret []byte, ttl time.Duration) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("confirmation token secret must not be empty")
	}
	return &TokenCodec{secret: secret, ttl: ttl}, nil
}

// Encode issues a token for email, valid for the configured TTL.
func (c *TokenCodec) Encode(email string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Decode validates a token and returns the embedded email. Failures are
// ErrTokenExpired for an outdated token and ErrTokenInvalid for anything
// else (bad signature, malformed, wrong algorithm, missing subject).
func (c *TokenCodec) Decode(tokenStr string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrTokenInvalid
	}

	return claims.Subject, nil
}
