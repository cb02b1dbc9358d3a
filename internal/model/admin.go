package model

import (
	"strings"
	"time"
)

type AdminAccount struct {
	ID                  string     `db:"id" json:"id"`
	Name                string     `db:"name" json:"name"`
	Email               string     `db:"email" json:"email"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	Role                Role       `db:"role" json:"role"`
	IsActive            bool       `db:"is_active" json:"isActive"`
	TokenVersion        int        `db:"token_version" json:"-"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockUntil           *time.Time `db:"lock_until" json:"-"`
	LastLoginAt         *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updatedAt"`
}

// IsLocked is derived from LockUntil; there is no stored lock flag.
func (a *AdminAccount) IsLocked(now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}

// LockExpired reports a lock that is still recorded but no longer in force.
func (a *AdminAccount) LockExpired(now time.Time) bool {
	return a.LockUntil != nil && !a.LockUntil.After(now)
}

// PublicAdmin is the client-facing view of an account.
type PublicAdmin struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        Role       `json:"role"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (a *AdminAccount) Public() PublicAdmin {
	return PublicAdmin{
		ID:          a.ID,
		Name:        a.Name,
		Email:       a.Email,
		Role:        a.Role,
		IsActive:    a.IsActive,
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.CreatedAt,
	}
}

type CreateAdminParams struct {
	Name     string
	Email    string
	Password string
	Role     Role
	IsActive bool
}

// SaveOptions carries an explicit password change; an empty NewPassword leaves the stored hash alone.
type SaveOptions struct {
	NewPassword string
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
