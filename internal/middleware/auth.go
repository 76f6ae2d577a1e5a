package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/speechflow/backend/internal/repository"
	"github.com/speechflow/backend/internal/service"
	"github.com/speechflow/backend/pkg/response"
)

type contextKey string

const userKey contextKey = "user"

// Auth returns a middleware that validates bearer tokens from the
// Authorization header and stores the authenticated user in the context.
func Auth(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				response.Unauthorized(w, "invalid authorization format")
				return
			}

			user, err := authService.ValidateToken(r.Context(), parts[1])
			if err != nil {
				response.Unauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves a bearer token into a user when one is present but
// never rejects the request. Used by register so a guest token can convert
// the guest account in place.
func OptionalAuth(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				if user, err := authService.ValidateToken(r.Context(), parts[1]); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), userKey, user))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUser extracts the authenticated user from the request context, nil when
// the request is anonymous.
func GetUser(ctx context.Context) *repository.User {
	if user, ok := ctx.Value(userKey).(*repository.User); ok {
		return user
	}
	return nil
}
