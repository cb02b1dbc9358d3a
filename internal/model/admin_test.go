package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAdminAccountIsLocked(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("nil lockUntil is unlocked", func(t *testing.T) {
		a := &AdminAccount{}
		assert.False(t, a.IsLocked(now))
		assert.False(t, a.LockExpired(now))
	})

	t.Run("future lockUntil is locked", func(t *testing.T) {
		until := now.Add(time.Minute)
		a := &AdminAccount{LockUntil: &until}
		assert.True(t, a.IsLocked(now))
		assert.False(t, a.LockExpired(now))
	})

	t.Run("past lockUntil is unlocked but expired", func(t *testing.T) {
		until := now.Add(-time.Minute)
		a := &AdminAccount{LockUntil: &until}
		assert.False(t, a.IsLocked(now))
		assert.True(t, a.LockExpired(now))
	})

	t.Run("lockUntil equal to now is unlocked", func(t *testing.T) {
		a := &AdminAccount{LockUntil: &now}
		assert.False(t, a.IsLocked(now))
	})
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" SuperAdmin ")
	assert.True(t, ok)
	assert.Equal(t, RoleSuperAdmin, r)

	_, ok = ParseRole("owner")
	assert.False(t, ok)
}

func TestPublicOmitsSecrets(t *testing.T) {
	a := &AdminAccount{ID: "1", Email: "root@x.com", PasswordHash: "$2a$...", TokenVersion: 3}
	p := a.Public()
	assert.Equal(t, "1", p.ID)
	assert.Equal(t, "root@x.com", p.Email)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "root@x.com", NormalizeEmail("  Root@X.com "))
}
