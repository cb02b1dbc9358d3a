package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/contentdesk/admin-api/internal/errors"
	"github.com/contentdesk/admin-api/internal/model"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestAdminService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an active admin with default role", func(t *testing.T) {
		f := newAuthFixture(t)
		svc := NewAdminService(f.repo)

		admin, err := svc.Register(ctx, RegisterInput{Name: "Ann", Email: "Ann@X.com", Password: "Secret123"})
		require.NoError(t, err)
		assert.Equal(t, "ann@x.com", admin.Email)
		assert.Equal(t, model.RoleAdmin, admin.Role)
		assert.True(t, admin.IsActive)
		assert.True(t, f.hasher.Verify("Secret123", admin.PasswordHash))
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newAuthFixture(t)
		svc := NewAdminService(f.repo)

		_, err := svc.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@x.com", Password: "Secret123"})
		require.NoError(t, err)

		_, err = svc.Register(ctx, RegisterInput{Name: "Ann 2", Email: "ANN@x.com", Password: "Secret123"})
		requireCode(t, err, apperrors.ErrCodeDuplicateEmail)
		assert.Equal(t, 409, apperrors.HTTPStatus(err))
	})

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"missing name", RegisterInput{Email: "a@x.com", Password: "Secret123"}},
		{"missing email", RegisterInput{Name: "A", Password: "Secret123"}},
		{"missing password", RegisterInput{Name: "A", Email: "a@x.com"}},
		{"bad email", RegisterInput{Name: "A", Email: "not-an-email", Password: "Secret123"}},
		{"weak password", RegisterInput{Name: "A", Email: "a@x.com", Password: "short"}},
		{"password without digits", RegisterInput{Name: "A", Email: "a@x.com", Password: "OnlyLetters"}},
		{"unknown role", RegisterInput{Name: "A", Email: "a@x.com", Password: "Secret123", Role: "owner"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			_, err := NewAdminService(f.repo).Register(ctx, tt.input)
			requireCode(t, err, apperrors.ErrCodeValidation)
		})
	}
}

func TestAdminService_List(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	svc := NewAdminService(f.repo)
	f.createAdmin(t, "a@x.com", model.RoleAdmin)
	f.createAdmin(t, "b@x.com", model.RoleEditor)

	list, err := svc.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	assert.Len(t, list.Admins, 2)
}

func TestAdminService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("role change bumps the token version", func(t *testing.T) {
		f := newAuthFixture(t)
		svc := NewAdminService(f.repo)
		root := f.createAdmin(t, "root@x.com", model.RoleSuperAdmin)
		editor := f.createAdmin(t, "ed@x.com", model.RoleEditor)

		updated, err := svc.Update(ctx, root.ID, editor.ID, UpdateInput{Role: strPtr("admin")})
		require.NoError(t, err)
		assert.Equal(t, model.RoleAdmin, updated.Role)
		assert.Equal(t, 1, updated.TokenVersion)
		assert.Equal(t, 1, f.reload(t, editor.ID).TokenVersion)
	})

	t.Run("deactivation invalidates outstanding tokens", func(t *testing.T) {
		f := newAuthFixture(t)
		svc := NewAdminService(f.repo)
		root := f.createAdmin(t, "root@x.com", model.RoleSuperAdmin)
		editor := f.createAdmin(t, "ed@x.com", model.RoleEditor)

		login, err := f.auth.Login(ctx, "ed@x.com", "Secret123")
		require.NoError(t, err)

		_, err = svc.Update(ctx, root.ID, editor.ID, UpdateInput{IsActive: boolPtr(false)})
		require.NoError(t, err)

		_, err = f.auth.Refresh(ctx, login.RefreshToken)
		requireCode(t, err, apperrors.ErrCodeInvalidAccount)
	})

	t.Run("no-op change leaves the version alone", func(t *testing.T) {
		f := newAuthFixture(t)
		svc := NewAdminService(f.repo)
		root := f.createAdmin(t, "root@x.com", model.RoleSuperAdmin)
		editor := f.createAdmin(t, "ed@x.com", model.RoleEditor)

		_, err := svc.Update(ctx, root.ID, editor.ID, UpdateInput{Role: strPtr("editor"), IsActive: boolPtr(true)})
		require.NoError(t, err)
		assert.Equal(t, 0, f.reload(t, editor.ID).TokenVersion)
	})

	t.Run("cannot demote or deactivate yourself", func(t *testing.T) {
		f := newAuthFixture(t)
		svc := NewAdminService(f.repo)
		root := f.createAdmin(t, "root@x.com", model.RoleSuperAdmin)

		_, err := svc.Update(ctx, root.ID, root.ID, UpdateInput{Role: strPtr("editor")})
		requireCode(t, err, apperrors.ErrCodeForbidden)

		_, err = svc.Update(ctx, root.ID, root.ID, UpdateInput{IsActive: boolPtr(false)})
		requireCode(t, err, apperrors.ErrCodeForbidden)
	})

	t.Run("validation", func(t *testing.T) {
		f := newAuthFixture(t)
		svc := NewAdminService(f.repo)
		root := f.createAdmin(t, "root@x.com", model.RoleSuperAdmin)
		editor := f.createAdmin(t, "ed@x.com", model.RoleEditor)

		_, err := svc.Update(ctx, root.ID, editor.ID, UpdateInput{})
		requireCode(t, err, apperrors.ErrCodeValidation)

		_, err = svc.Update(ctx, root.ID, editor.ID, UpdateInput{Role: strPtr("owner")})
		requireCode(t, err, apperrors.ErrCodeValidation)

		_, err = svc.Update(ctx, root.ID, "missing", UpdateInput{Role: strPtr("admin")})
		requireCode(t, err, apperrors.ErrCodeNotFound)
	})
}

func TestAdminService_RevokeSessions(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	svc := NewAdminService(f.repo)
	editor := f.createAdmin(t, "ed@x.com", model.RoleEditor)

	login, err := f.auth.Login(ctx, "ed@x.com", "Secret123")
	require.NoError(t, err)

	require.NoError(t, svc.RevokeSessions(ctx, editor.ID))

	_, err = f.auth.Refresh(ctx, login.RefreshToken)
	requireCode(t, err, apperrors.ErrCodeTokenInvalidated)

	err = svc.RevokeSessions(ctx, "missing")
	requireCode(t, err, apperrors.ErrCodeNotFound)
}

func TestAdminService_SeedSuperAdmin(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	svc := NewAdminService(f.repo)

	admin, err := svc.SeedSuperAdmin(ctx, "Root", "root@x.com", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, model.RoleSuperAdmin, admin.Role)

	again, err := svc.SeedSuperAdmin(ctx, "Root", "root@x.com", "Secret123")
	assert.ErrorIs(t, err, ErrAlreadySeeded)
	assert.Equal(t, admin.ID, again.ID)
}
