package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/contentdesk/admin-api/internal/clock"
	"github.com/contentdesk/admin-api/internal/model"
)

// memoryAdminRepo keeps admins in process memory. It backs tests and
// single-process development runs; all mutations happen under one mutex.
type memoryAdminRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.AdminAccount
	byEmail map[string]string
	hasher  Hasher
	clock   clock.Clock
}

func NewMemoryAdminRepository(hasher Hasher, clk clock.Clock) AdminRepository {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &memoryAdminRepo{
		byID:    make(map[string]*model.AdminAccount),
		byEmail: make(map[string]string),
		hasher:  hasher,
		clock:   clk,
	}
}

func (r *memoryAdminRepo) FindByEmail(ctx context.Context, email string) (*model.AdminAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[model.NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	return clone(r.byID[id]), nil
}

func (r *memoryAdminRepo) FindByID(ctx context.Context, id string) (*model.AdminAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return clone(r.byID[id]), nil
}

func (r *memoryAdminRepo) Create(ctx context.Context, params model.CreateAdminParams) (*model.AdminAccount, error) {
	if err := validateCreate(params); err != nil {
		return nil, err
	}

	email := model.NormalizeEmail(params.Email)

	r.mu.Lock()
	_, exists := r.byEmail[email]
	r.mu.Unlock()
	if exists {
		return nil, ErrDuplicateEmail
	}

	// Hash outside the lock; it is the slow part.
	hash, err := r.hasher.Hash(params.Password)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return nil, ErrDuplicateEmail
	}

	now := r.clock.Now()
	admin := &model.AdminAccount{
		ID:           uuid.NewString(),
		Name:         params.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         params.Role,
		IsActive:     params.IsActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.byID[admin.ID] = admin
	r.byEmail[email] = admin.ID

	return clone(admin), nil
}

func (r *memoryAdminRepo) Save(ctx context.Context, admin *model.AdminAccount, opts model.SaveOptions) error {
	if err := validateSave(admin); err != nil {
		return err
	}

	var hash string
	if opts.NewPassword != "" {
		h, err := r.hasher.Hash(opts.NewPassword)
		if err != nil {
			return err
		}
		hash = h
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[admin.ID]
	if !ok {
		return ErrNotFound
	}

	email := model.NormalizeEmail(admin.Email)
	if email != stored.Email {
		if _, taken := r.byEmail[email]; taken {
			return ErrDuplicateEmail
		}
		delete(r.byEmail, stored.Email)
		r.byEmail[email] = stored.ID
	}

	stored.Name = admin.Name
	stored.Email = email
	stored.Role = admin.Role
	stored.IsActive = admin.IsActive
	if hash != "" {
		stored.PasswordHash = hash
	}
	stored.UpdatedAt = r.clock.Now()

	admin.Email = email
	admin.PasswordHash = stored.PasswordHash
	admin.FailedLoginAttempts = stored.FailedLoginAttempts
	admin.LockUntil = copyTime(stored.LockUntil)
	admin.LastLoginAt = copyTime(stored.LastLoginAt)
	admin.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *memoryAdminRepo) IncrementTokenVersion(ctx context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return 0, ErrNotFound
	}
	stored.TokenVersion++
	stored.UpdatedAt = r.clock.Now()
	return stored.TokenVersion, nil
}

func (r *memoryAdminRepo) RecordFailedLogin(ctx context.Context, id string, threshold int, lockUntil time.Time) (*model.AdminAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	stored.FailedLoginAttempts++
	if stored.FailedLoginAttempts >= threshold {
		until := lockUntil
		stored.LockUntil = &until
	}
	stored.UpdatedAt = r.clock.Now()
	return clone(stored), nil
}

func (r *memoryAdminRepo) RecordSuccessfulLogin(ctx context.Context, id string, now time.Time) (*model.AdminAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	stored.FailedLoginAttempts = 0
	stored.LockUntil = nil
	stored.LastLoginAt = &now
	stored.UpdatedAt = r.clock.Now()
	return clone(stored), nil
}

func (r *memoryAdminRepo) ClearExpiredLock(ctx context.Context, id string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return false, ErrNotFound
	}
	if !stored.LockExpired(now) {
		return false, nil
	}
	stored.FailedLoginAttempts = 0
	stored.LockUntil = nil
	stored.UpdatedAt = r.clock.Now()
	return true, nil
}

func (r *memoryAdminRepo) List(ctx context.Context, limit, offset int) ([]model.AdminAccount, error) {
	r.mu.Lock()
	all := make([]model.AdminAccount, 0, len(r.byID))
	for _, a := range r.byID {
		all = append(all, *clone(a))
	}
	r.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].Email < all[j].Email
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []model.AdminAccount{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memoryAdminRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID), nil
}

func (r *memoryAdminRepo) ClearExpiredLocks(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cleared int64
	for _, a := range r.byID {
		if a.LockExpired(now) {
			a.LockUntil = nil
			a.FailedLoginAttempts = 0
			a.UpdatedAt = r.clock.Now()
			cleared++
		}
	}
	return cleared, nil
}

func clone(a *model.AdminAccount) *model.AdminAccount {
	if a == nil {
		return nil
	}
	c := *a
	c.LockUntil = copyTime(a.LockUntil)
	c.LastLoginAt = copyTime(a.LastLoginAt)
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
