package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/iho/coinledger/internal/domain"
	"github.com/iho/coinledger/internal/infrastructure/auth"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// ClaimsContextKey is the context key for verified token claims
	ClaimsContextKey ContextKey = "claims"
	// PrivilegedContextKey marks a request allowed to run privileged commands
	PrivilegedContextKey ContextKey = "privileged"

	// PrivilegedHeader grants privilege when authentication is disabled.
	PrivilegedHeader = "X-Privileged"
)

// AuthMiddleware rejects requests without a valid bearer token and stores its claims
// in the request context.
func AuthMiddleware(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := jwtManager.Verify(parts[1])
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			ctx = context.WithValue(ctx, PrivilegedContextKey, claims.Role.IsPrivileged())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DevPrivilege trusts the X-Privileged header. It is installed only when
// authentication is disabled.
func DevPrivilege(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		privileged := strings.EqualFold(r.Header.Get(PrivilegedHeader), "true")
		ctx := context.WithValue(r.Context(), PrivilegedContextKey, privileged)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects authenticated requests whose role is below minRole.
func RequireRole(minRole domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if minRole == domain.RoleAdmin && !claims.Role.IsPrivileged() {
				http.Error(w, "insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext returns the verified claims of the request, if any.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*auth.Claims)
	return claims, ok
}

// IsPrivileged reports whether the request may run privileged commands.
func IsPrivileged(ctx context.Context) bool {
	privileged, _ := ctx.Value(PrivilegedContextKey).(bool)
	return privileged
}
