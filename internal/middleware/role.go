package middleware

import (
	"net/http"
	"slices"

	"github.com/contentdesk/admin-api/internal/audit"
	apperrors "github.com/contentdesk/admin-api/internal/errors"
	"github.com/contentdesk/admin-api/internal/model"
)

// RequireRole admits callers whose role is in roles. There is no hierarchy:
// superadmin passes only where it is listed.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	allowed := slices.Clone(roles)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			if identity == nil {
				writeError(w, apperrors.Unauthorized("Not authenticated"))
				return
			}

			if !slices.Contains(allowed, identity.Role) {
				audit.LogFromRequest(r, audit.Event{
					Type:    audit.EventForbidden,
					AdminID: identity.ID,
					Details: map[string]interface{}{"role": string(identity.Role), "path": r.URL.Path},
				})
				writeError(w, apperrors.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
