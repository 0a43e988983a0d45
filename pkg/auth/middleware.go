package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hirewire/identity/pkg/account"
	"github.com/hirewire/identity/pkg/token"
)

type contextKey string

// AuthUserKey is the request context key holding the authenticated principal
const AuthUserKey contextKey = "auth_user"

// AuthUser is the authenticated principal placed on the request context
type AuthUser struct {
	AccountID uuid.UUID
	Role      account.Role
}

// Middleware verifies bearer tokens and enforces role requirements
type Middleware struct {
	tokens   *token.Service
	accounts account.Repository
}

// NewMiddleware creates a new auth Middleware
func NewMiddleware(tokens *token.Service, accounts account.Repository) *Middleware {
	return &Middleware{tokens: tokens, accounts: accounts}
}

// Verifier authenticates the request's bearer token and places the
// principal on the context. A token without a role claim is decorated with
// the account's current role from the store.
func (m *Middleware) Verifier(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := bearerToken(r)
		if tokenStr == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		verified, err := m.tokens.Verify(tokenStr)
		if err != nil {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		user := AuthUser{AccountID: verified.AccountID()}
		switch t := verified.(type) {
		case token.SessionToken:
			user.Role = account.Role(t.Role)
		case token.BareToken:
			acct, err := m.accounts.FindByID(r.Context(), t.ID)
			if err != nil {
				slog.Warn("Failed to resolve role for bare token", "account_id", t.ID, "err", err)
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}
			user.Role = acct.Role
		default:
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), AuthUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects requests whose principal does not hold one of the
// given roles. It must run after Verifier.
func RequireRole(roles ...account.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "insufficient role", http.StatusForbidden)
		})
	}
}

// UserFromContext returns the authenticated principal, if any
func UserFromContext(ctx context.Context) (AuthUser, bool) {
	user, ok := ctx.Value(AuthUserKey).(AuthUser)
	return user, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
