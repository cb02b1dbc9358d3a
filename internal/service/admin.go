package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/contentdesk/admin-api/internal/errors"
	"github.com/contentdesk/admin-api/internal/model"
	"github.com/contentdesk/admin-api/internal/repository"
	"github.com/contentdesk/admin-api/internal/util"
)

var ErrAlreadySeeded = errors.New("superadmin already exists")

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateInput carries the administrative changes; nil fields are left alone.
type UpdateInput struct {
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

type AdminList struct {
	Admins []model.PublicAdmin `json:"admins"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

type AdminService struct {
	admins repository.AdminRepository
}

func NewAdminService(admins repository.AdminRepository) *AdminService {
	return &AdminService{admins: admins}
}

func (s *AdminService) Register(ctx context.Context, in RegisterInput) (*model.AdminAccount, error) {
	name := strings.TrimSpace(in.Name)
	email := model.NormalizeEmail(in.Email)

	switch {
	case name == "":
		return nil, apperrors.MissingRequired("name")
	case email == "":
		return nil, apperrors.MissingRequired("email")
	case in.Password == "":
		return nil, apperrors.MissingRequired("password")
	}
	if !util.IsValidEmail(email) {
		return nil, apperrors.ValidationError("Invalid email address")
	}
	if err := util.ValidatePassword(in.Password); err != nil {
		return nil, apperrors.ValidationError(err.Error())
	}

	role := model.RoleAdmin
	if in.Role != "" {
		parsed, ok := model.ParseRole(in.Role)
		if !ok {
			return nil, apperrors.ValidationError("Invalid role")
		}
		role = parsed
	}

	admin, err := s.admins.Create(ctx, model.CreateAdminParams{
		Name:     name,
		Email:    email,
		Password: in.Password,
		Role:     role,
		IsActive: true,
	})
	if err != nil {
		return nil, translateRepoError(err, "create admin")
	}
	return admin, nil
}

func (s *AdminService) List(ctx context.Context, limit, offset int) (*AdminList, error) {
	admins, err := s.admins.List(ctx, limit, offset)
	if err != nil {
		return nil, translateRepoError(err, "list admins")
	}
	total, err := s.admins.Count(ctx)
	if err != nil {
		return nil, translateRepoError(err, "count admins")
	}

	out := make([]model.PublicAdmin, 0, len(admins))
	for i := range admins {
		out = append(out, admins[i].Public())
	}
	return &AdminList{Admins: out, Total: total, Limit: limit, Offset: offset}, nil
}

// Update applies a role or active-flag change. Any effective change bumps the
// token version so outstanding tokens stop carrying the old role.
func (s *AdminService) Update(ctx context.Context, actorID, id string, in UpdateInput) (*model.AdminAccount, error) {
	if in.Role == nil && in.IsActive == nil {
		return nil, apperrors.ValidationError("Nothing to update")
	}

	admin, err := s.admins.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "find admin")
	}
	if admin == nil {
		return nil, apperrors.NotFound("Admin")
	}

	changed := false
	if in.Role != nil {
		role, ok := model.ParseRole(*in.Role)
		if !ok {
			return nil, apperrors.ValidationError("Invalid role")
		}
		if role != admin.Role {
			if id == actorID {
				return nil, apperrors.Forbidden("You cannot change your own role")
			}
			admin.Role = role
			changed = true
		}
	}
	if in.IsActive != nil && *in.IsActive != admin.IsActive {
		if id == actorID && !*in.IsActive {
			return nil, apperrors.Forbidden("You cannot deactivate your own account")
		}
		admin.IsActive = *in.IsActive
		changed = true
	}

	if !changed {
		return admin, nil
	}

	if err := s.admins.Save(ctx, admin, model.SaveOptions{}); err != nil {
		return nil, translateRepoError(err, "save admin")
	}
	version, err := s.admins.IncrementTokenVersion(ctx, admin.ID)
	if err != nil {
		return nil, translateRepoError(err, "increment token version")
	}
	admin.TokenVersion = version
	return admin, nil
}

// RevokeSessions invalidates all tokens issued to id.
func (s *AdminService) RevokeSessions(ctx context.Context, id string) error {
	if _, err := s.admins.IncrementTokenVersion(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Admin")
		}
		return translateRepoError(err, "revoke sessions")
	}
	return nil
}

// SeedSuperAdmin bootstraps the first operator account. It returns
// ErrAlreadySeeded when the email is taken.
func (s *AdminService) SeedSuperAdmin(ctx context.Context, name, email, password string) (*model.AdminAccount, error) {
	existing, err := s.admins.FindByEmail(ctx, email)
	if err != nil {
		return nil, translateRepoError(err, "find admin by email")
	}
	if existing != nil {
		return existing, ErrAlreadySeeded
	}

	return s.Register(ctx, RegisterInput{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     string(model.RoleSuperAdmin),
	})
}

func translateRepoError(err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return apperrors.DuplicateEmail()
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("Admin")
	case errors.Is(err, repository.ErrInvalidAdmin):
		return apperrors.ValidationError(err.Error())
	case errors.Is(err, util.ErrPasswordTooLong):
		return apperrors.ValidationError(err.Error())
	}
	log.Error().Err(err).Str("op", op).Msg("admin storage failure")
	return apperrors.StorageFailure(err)
}
