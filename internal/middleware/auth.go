package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/bryanwahyu/doc-insight/internal/domain/users"
)

type contextKey string

const userKey contextKey = "user"

// TokenResolver maps a bearer token to its user.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*users.User, error)
}

// BearerAuth validates the Authorization header and stores the resolved
// user in the request context. Tokens are opaque single-slot credentials;
// a login rotates them, so a stale token simply stops resolving.
func BearerAuth(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				http.Error(w, "missing Authorization header", http.StatusUnauthorized)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				http.Error(w, "invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			u, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext extracts the authenticated user, nil when absent.
func UserFromContext(ctx context.Context) *users.User {
	if u, ok := ctx.Value(userKey).(*users.User); ok {
		return u
	}
	return nil
}
