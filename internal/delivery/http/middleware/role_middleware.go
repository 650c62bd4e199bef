package middleware

import (
	"net/http"
	"slices"

	"dirwa-booking/internal/domain/entity"
	"dirwa-booking/pkg/response"
)

// RequireRole admits requests whose token carries one of roleIDs.
// It must run after Authenticate.
func RequireRole(roleIDs ...int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			roleID, ok := GetRoleIDFromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "Role information not found")
				return
			}
			if !slices.Contains(roleIDs, roleID) {
				response.Forbidden(w, "You don't have permission to access this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin guards back-office writes: booking edits, calendars, refunds.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(entity.RoleIDAdmin)(next)
}

// RequireStaff guards back-office reads. Admins pass too.
func RequireStaff(next http.Handler) http.Handler {
	return RequireRole(entity.RoleIDAdmin, entity.RoleIDStaff)(next)
}
