package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gallery/service/internal/auth"
	"github.com/gallery/service/internal/response"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

// AdminEmailKey is the context key for the authenticated admin's email.
const AdminEmailKey contextKey = "adminEmail"

// RequireAdmin returns middleware that validates a Bearer JWT and requires
// the admin role claim. It runs before any body parsing so unauthenticated
// requests never trigger a multipart read or a storage call.
func RequireAdmin(svc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "no token provided")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				response.Unauthorized(w, "invalid authorization header format")
				return
			}

			claims, err := svc.Verify(parts[1])
			if err != nil {
				response.Unauthorized(w, "invalid or expired token")
				return
			}
			if claims.Role != auth.AdminRole {
				response.Unauthorized(w, "admin access required")
				return
			}

			ctx := context.WithValue(r.Context(), AdminEmailKey, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
