package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/contentdesk/admin-api/internal/errors"
	"github.com/contentdesk/admin-api/internal/model"
)

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	serve := func(identity *Identity, roles ...model.Role) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admins", nil)
		if identity != nil {
			req = req.WithContext(WithIdentity(req.Context(), identity))
		}
		rec := httptest.NewRecorder()
		RequireRole(roles...)(ok).ServeHTTP(rec, req)
		return rec
	}

	editor := &Identity{ID: "e-1", Role: model.RoleEditor}
	superadmin := &Identity{ID: "s-1", Role: model.RoleSuperAdmin}

	t.Run("editor is forbidden on a superadmin route", func(t *testing.T) {
		rec := serve(editor, model.RoleSuperAdmin)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, apperrors.ErrCodeForbidden, decodeError(t, rec).Code)
	})

	t.Run("editor passes on an editor route", func(t *testing.T) {
		rec := serve(editor, model.RoleEditor)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("any listed role passes", func(t *testing.T) {
		rec := serve(editor, model.RoleAdmin, model.RoleEditor)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("superadmin is not implied on an admin route", func(t *testing.T) {
		rec := serve(superadmin, model.RoleAdmin)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing identity is unauthorized", func(t *testing.T) {
		rec := serve(nil, model.RoleEditor)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, apperrors.ErrCodeUnauthorized, decodeError(t, rec).Code)
	})

	t.Run("empty allow-list admits nobody", func(t *testing.T) {
		rec := serve(superadmin)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
