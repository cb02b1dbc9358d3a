package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/contentdesk/admin-api/internal/model"
)

const pqUniqueViolation = "23505"

var (
	ErrDuplicateEmail = errors.New("email already exists")
	ErrNotFound       = errors.New("admin not found")
	ErrInvalidAdmin   = errors.New("invalid admin record")
)

// Hasher is the password hashing primitive the store applies before persisting.
type Hasher interface {
	Hash(plaintext string) (string, error)
}

// AdminRepository is the only path to persisted admin identities.
//
// Save writes only the administrative fields (name, email, role, active
// flag, password). TokenVersion moves through IncrementTokenVersion and the
// login bookkeeping fields move through RecordFailedLogin,
// RecordSuccessfulLogin and ClearExpiredLock, each a single statement, so
// a login and an administrative edit racing on one account both land.
type AdminRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.AdminAccount, error)
	FindByID(ctx context.Context, id string) (*model.AdminAccount, error)
	Create(ctx context.Context, params model.CreateAdminParams) (*model.AdminAccount, error)
	Save(ctx context.Context, admin *model.AdminAccount, opts model.SaveOptions) error
	IncrementTokenVersion(ctx context.Context, id string) (int, error)
	RecordFailedLogin(ctx context.Context, id string, threshold int, lockUntil time.Time) (*model.AdminAccount, error)
	RecordSuccessfulLogin(ctx context.Context, id string, now time.Time) (*model.AdminAccount, error)
	ClearExpiredLock(ctx context.Context, id string, now time.Time) (bool, error)
	List(ctx context.Context, limit, offset int) ([]model.AdminAccount, error)
	Count(ctx context.Context) (int, error)
	ClearExpiredLocks(ctx context.Context, now time.Time) (int64, error)
}

type adminRepo struct {
	db     *sqlx.DB
	hasher Hasher
}

func NewAdminRepository(db *sqlx.DB, hasher Hasher) AdminRepository {
	return &adminRepo{db: db, hasher: hasher}
}

func (r *adminRepo) FindByEmail(ctx context.Context, email string) (*model.AdminAccount, error) {
	var admin model.AdminAccount
	err := r.db.GetContext(ctx, &admin, `
		SELECT * FROM admins WHERE email = $1
	`, model.NormalizeEmail(email))
	return HandleNotFound(&admin, err)
}

func (r *adminRepo) FindByID(ctx context.Context, id string) (*model.AdminAccount, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	var admin model.AdminAccount
	err := r.db.GetContext(ctx, &admin, `SELECT * FROM admins WHERE id = $1`, id)
	return HandleNotFound(&admin, err)
}

func (r *adminRepo) Create(ctx context.Context, params model.CreateAdminParams) (*model.AdminAccount, error) {
	if err := validateCreate(params); err != nil {
		return nil, err
	}

	hash, err := r.hasher.Hash(params.Password)
	if err != nil {
		return nil, err
	}

	var admin model.AdminAccount
	err = r.db.GetContext(ctx, &admin, `
		INSERT INTO admins (id, name, email, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, uuid.NewString(), params.Name, model.NormalizeEmail(params.Email), hash, params.Role, params.IsActive)
	if err != nil {
		return nil, translateError(err)
	}
	return &admin, nil
}

func (r *adminRepo) Save(ctx context.Context, admin *model.AdminAccount, opts model.SaveOptions) error {
	if err := validateSave(admin); err != nil {
		return err
	}
	admin.Email = model.NormalizeEmail(admin.Email)

	args := []any{admin.ID, admin.Name, admin.Email, admin.Role, admin.IsActive}
	query := `
		UPDATE admins SET
			name = $2, email = $3, role = $4, is_active = $5,
			updated_at = NOW()`

	if opts.NewPassword != "" {
		hash, err := r.hasher.Hash(opts.NewPassword)
		if err != nil {
			return err
		}
		query += `, password_hash = $6`
		args = append(args, hash)
		admin.PasswordHash = hash
	}
	query += ` WHERE id = $1 RETURNING updated_at`

	var updatedAt time.Time
	err := r.db.GetContext(ctx, &updatedAt, query, args...)
	if err != nil {
		if IsNoRows(err) {
			return ErrNotFound
		}
		return translateError(err)
	}
	admin.UpdatedAt = updatedAt
	return nil
}

func (r *adminRepo) IncrementTokenVersion(ctx context.Context, id string) (int, error) {
	if _, err := uuid.Parse(id); err != nil {
		return 0, ErrNotFound
	}
	var version int
	err := r.db.GetContext(ctx, &version, `
		UPDATE admins SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING token_version
	`, id)
	if err != nil {
		if IsNoRows(err) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return version, nil
}

// RecordFailedLogin increments the counter and sets the lock in one statement,
// so concurrent failures on the same account all count.
func (r *adminRepo) RecordFailedLogin(ctx context.Context, id string, threshold int, lockUntil time.Time) (*model.AdminAccount, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var admin model.AdminAccount
	err := r.db.GetContext(ctx, &admin, `
		UPDATE admins SET
			failed_login_attempts = failed_login_attempts + 1,
			lock_until = CASE
				WHEN failed_login_attempts + 1 >= $2 THEN $3
				ELSE lock_until
			END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id, threshold, lockUntil)
	result, err := HandleNotFound(&admin, err)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrNotFound
	}
	return result, nil
}

// RecordSuccessfulLogin resets the failure counter and stamps last_login_at.
// The returned row reflects any administrative edit made while the password
// was being checked.
func (r *adminRepo) RecordSuccessfulLogin(ctx context.Context, id string, now time.Time) (*model.AdminAccount, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var admin model.AdminAccount
	err := r.db.GetContext(ctx, &admin, `
		UPDATE admins SET
			failed_login_attempts = 0, lock_until = NULL, last_login_at = $2,
			updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id, now)
	result, err := HandleNotFound(&admin, err)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrNotFound
	}
	return result, nil
}

// ClearExpiredLock lifts the lock on one account if it has lapsed by now.
// It reports whether a lock was cleared.
func (r *adminRepo) ClearExpiredLock(ctx context.Context, id string, now time.Time) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, ErrNotFound
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE admins SET failed_login_attempts = 0, lock_until = NULL, updated_at = NOW()
		WHERE id = $1 AND lock_until IS NOT NULL AND lock_until <= $2
	`, id, now)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *adminRepo) List(ctx context.Context, limit, offset int) ([]model.AdminAccount, error) {
	var admins []model.AdminAccount
	err := r.db.SelectContext(ctx, &admins, `
		SELECT * FROM admins
		ORDER BY created_at DESC, email
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return admins, nil
}

func (r *adminRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM admins`)
	return count, err
}

func (r *adminRepo) ClearExpiredLocks(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE admins SET failed_login_attempts = 0, lock_until = NULL, updated_at = NOW()
		WHERE lock_until IS NOT NULL AND lock_until <= $1
	`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return ErrDuplicateEmail
	}
	return err
}

func validateCreate(params model.CreateAdminParams) error {
	if params.Name == "" || model.NormalizeEmail(params.Email) == "" || params.Password == "" {
		return fmt.Errorf("%w: name, email and password are required", ErrInvalidAdmin)
	}
	if !params.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidAdmin, params.Role)
	}
	return nil
}

func validateSave(admin *model.AdminAccount) error {
	if admin == nil || admin.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidAdmin)
	}
	if admin.Name == "" || model.NormalizeEmail(admin.Email) == "" {
		return fmt.Errorf("%w: name and email are required", ErrInvalidAdmin)
	}
	if !admin.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidAdmin, admin.Role)
	}
	return nil
}
