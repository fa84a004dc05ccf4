package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/schoolapply/registration-api/internal/httputil"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	IdentityIDContextKey ContextKey = "identity_id"
	RoleContextKey       ContextKey = "role"
)

// SessionVerifier validates bearer tokens issued by the SessionIssuer.
type SessionVerifier interface {
	Verify(tokenStr string) (*SessionClaims, error)
}

// Middleware handles authentication for protected routes
type Middleware struct {
	verifier SessionVerifier
}

func NewMiddleware(verifier SessionVerifier) *Middleware {
	return &Middleware{verifier: verifier}
}

// RequireAuth validates the bearer token and stores identity id and role in
// the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		claims, err := m.verifier.Verify(parts[1])
		if err != nil {
			if err == ErrExpiredToken {
				httputil.RespondErrorWithCode(w, "session has expired", httputil.CodeSessionExpired, http.StatusUnauthorized)
				return
			}
			httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		identityID, err := uuid.Parse(claims.IdentityID)
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid identity in token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityIDContextKey, identityID)
		ctx = context.WithValue(ctx, RoleContextKey, claims.Role)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects requests whose session carries a different role.
// Must be mounted after RequireAuth.
func (m *Middleware) RequireRole(role string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionRole, ok := GetRoleFromContext(r.Context())
			if !ok || sessionRole != role {
				httputil.RespondErrorWithCode(w, "insufficient permissions", httputil.CodeForbidden, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetIdentityIDFromContext extracts the identity id from the request context
func GetIdentityIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	identityID, ok := ctx.Value(IdentityIDContextKey).(uuid.UUID)
	return identityID, ok
}

// GetRoleFromContext extracts the session role from the request context
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleContextKey).(string)
	return role, ok
}
