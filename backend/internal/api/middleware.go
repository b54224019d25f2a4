// ============================================================================
// backend/internal/api/middleware.go
// Authentication and role middleware
// ============================================================================

package api

import (
	"net/http"

	"acadpulse/backend/internal/api/util"
	"acadpulse/backend/internal/auth"
)

// AuthMiddleware validates the bearer token on every request and injects the
// authenticated user into the request context.
func AuthMiddleware(authSvc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := util.ExtractToken(r)
			if err != nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			user, _, err := authSvc.ValidateToken(r.Context(), tokenStr)
			if err != nil {
				util.HandleServiceError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(util.WithUser(r.Context(), user)))
		})
	}
}

// RequireRole gates a route group to the given roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := util.UserFromContext(r.Context())
			if !ok {
				util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !allowed[user.Role] {
				util.WriteJSONError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
