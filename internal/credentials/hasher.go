package credentials

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
)

// ErrEmptySecret is returned when a Hasher is constructed without a secret.
// Callers must treat this as fatal at startup, not as a request error.
var ErrEmptySecret = errors.New("hashing secret must not be empty")

// Hasher derives password digests with HMAC-SHA512 keyed by a server-held
// secret. The digest format is a 128-character lowercase hex string.
//
// The scheme is deterministic and uses no per-record salt; this matches the
// format of digests already in the store and cannot change without a
// migration of every stored hash.
type Hasher struct {
	secret []byte
}

func NewHasher(secret []byte) (*Hasher, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &Hasher{secret: secret}, nil
}

// Hash returns the hex-encoded HMAC-SHA512 digest of password.
func (h *Hasher) Hash(password string) string {
	mac := hmac.New(sha512.New, h.secret)
	mac.Write([]byte(password))
	return hex.EncodeToString(mac.Sum(nil))
}

// Matches reports whether password hashes to digest. The comparison is
// constant time.
func (h *Hasher) Matches(digest, password string) bool {
	return hmac.Equal([]byte(h.Hash(password)), []byte(digest))
}
