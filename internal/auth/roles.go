package auth

import (
	"context"
	"net/http"
	"slices"

	"github.com/rs/zerolog/hlog"

	"github.com/VJYGOUR/auth-system/internal/httpx"
)

// RoleResolver looks up the roles held by a user. No implementation ships
// with the service; deployments that need roles provide one.
type RoleResolver interface {
	Roles(ctx context.Context, userID string) ([]string, error)
}

// RequireRoles returns middleware that admits an identity holding at least
// one of roles. With no roles it admits any identity. It must run after
// Middleware.
func RequireRoles(resolver RoleResolver, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				httpx.Error(w, http.StatusUnauthorized, httpx.CodeMissingToken, "Authentication required")
				return
			}
			if len(roles) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			held, err := resolver.Roles(r.Context(), id.UserID)
			if err != nil {
				hlog.FromRequest(r).Error().Err(err).Str("user_id", id.UserID).Msg("Failed to resolve roles")
				httpx.InternalError(w)
				return
			}
			for _, role := range roles {
				if slices.Contains(held, role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.Error(w, http.StatusForbidden, httpx.CodeForbidden, "You do not have access to this resource")
		})
	}
}
