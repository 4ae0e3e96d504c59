package middleware

import (
	"net/http"
	"slices"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// RequireRole admits only tokens whose role is one of roles.
func RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			roleStr, ok := claims["role"].(string)
			if !ok {
				response.HandleError(w, auth.ErrAccessDenied)
				return
			}

			if !slices.Contains(roles, auth.Role(roleStr)) {
				response.HandleError(w, auth.ErrAccessDenied)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwner requires owner role
func RequireOwner(next http.Handler) http.Handler {
	return RequireRole(auth.RoleOwner)(next)
}

// RequireManager requires manager or owner role
func RequireManager(next http.Handler) http.Handler {
	return RequireRole(auth.RoleManager, auth.RoleOwner)(next)
}
