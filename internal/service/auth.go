package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/contentdesk/admin-api/internal/audit"
	"github.com/contentdesk/admin-api/internal/clock"
	apperrors "github.com/contentdesk/admin-api/internal/errors"
	"github.com/contentdesk/admin-api/internal/metrics"
	"github.com/contentdesk/admin-api/internal/model"
	"github.com/contentdesk/admin-api/internal/repository"
)

const (
	DefaultMaxLoginAttempts = 5
	DefaultLockDuration     = 15 * time.Minute
)

// LockoutPolicy is the per-account brute-force threshold.
type LockoutPolicy struct {
	MaxAttempts int
	Duration    time.Duration
}

func (p LockoutPolicy) withDefaults() LockoutPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxLoginAttempts
	}
	if p.Duration <= 0 {
		p.Duration = DefaultLockDuration
	}
	return p
}

// PasswordHasher is satisfied by *util.PasswordHasher.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Admin        *model.AdminAccount
}

type AuthService struct {
	admins  repository.AdminRepository
	hasher  PasswordHasher
	tokens  *TokenService
	clock   clock.Clock
	policy  LockoutPolicy
	metrics metrics.Recorder

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	admins repository.AdminRepository,
	hasher PasswordHasher,
	tokens *TokenService,
	clk clock.Clock,
	policy LockoutPolicy,
	recorder metrics.Recorder,
) *AuthService {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &AuthService{
		admins:  admins,
		hasher:  hasher,
		tokens:  tokens,
		clock:   clk,
		policy:  policy.withDefaults(),
		metrics: recorder,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.MissingCredentials()
	}

	admin, err := s.admins.FindByEmail(ctx, email)
	if err != nil {
		s.metrics.LoginAttempt(metrics.LoginError)
		return nil, s.storageFailure("find admin by email", err)
	}
	if admin == nil {
		// Spend the same bcrypt time as a real mismatch.
		s.hasher.Verify(password, s.dummy())
		s.metrics.LoginAttempt(metrics.LoginInvalidCredentials)
		return nil, apperrors.InvalidCredentials()
	}

	now := s.clock.Now()

	if admin.LockExpired(now) {
		if _, err := s.admins.ClearExpiredLock(ctx, admin.ID, now); err != nil {
			s.metrics.LoginAttempt(metrics.LoginError)
			return nil, s.storageFailure("clear expired lock", err)
		}
		admin.LockUntil = nil
		admin.FailedLoginAttempts = 0
	}

	if admin.IsLocked(now) {
		s.metrics.LoginAttempt(metrics.LoginLocked)
		return nil, apperrors.AccountLocked()
	}

	if !admin.IsActive {
		s.metrics.LoginAttempt(metrics.LoginDisabled)
		return nil, apperrors.AccountDisabled()
	}

	if !s.hasher.Verify(password, admin.PasswordHash) {
		return nil, s.recordFailure(ctx, admin, now)
	}

	// Re-read through the write: the account may have been deactivated or
	// had its role changed while the password was being checked.
	admin, err = s.admins.RecordSuccessfulLogin(ctx, admin.ID, now)
	if err != nil {
		s.metrics.LoginAttempt(metrics.LoginError)
		return nil, s.storageFailure("record successful login", err)
	}
	if !admin.IsActive {
		s.metrics.LoginAttempt(metrics.LoginDisabled)
		return nil, apperrors.AccountDisabled()
	}

	access, err := s.tokens.IssueAccess(admin.ID, admin.Role, admin.TokenVersion)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "An unexpected error occurred", err)
	}
	refresh, err := s.tokens.IssueRefresh(admin.ID, admin.TokenVersion)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "An unexpected error occurred", err)
	}

	s.metrics.LoginAttempt(metrics.LoginSuccess)
	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		Admin:        admin,
	}, nil
}

func (s *AuthService) recordFailure(ctx context.Context, admin *model.AdminAccount, now time.Time) error {
	updated, err := s.admins.RecordFailedLogin(ctx, admin.ID, s.policy.MaxAttempts, now.Add(s.policy.Duration))
	if err != nil {
		s.metrics.LoginAttempt(metrics.LoginError)
		return s.storageFailure("record failed login", err)
	}

	s.metrics.LoginAttempt(metrics.LoginInvalidCredentials)
	if updated.FailedLoginAttempts == s.policy.MaxAttempts && updated.IsLocked(now) {
		s.metrics.Lockout()
		audit.Log(ctx, audit.Event{
			Type:    audit.EventAccountLocked,
			AdminID: admin.ID,
			Details: map[string]interface{}{
				"attempts":   updated.FailedLoginAttempts,
				"lock_until": *updated.LockUntil,
			},
		})
	}
	return apperrors.InvalidCredentials()
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperrors.MissingToken()
	}

	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		s.metrics.Refresh("invalid_token")
		return "", apperrors.InvalidOrExpiredToken()
	}

	admin, err := s.admins.FindByID(ctx, claims.Subject)
	if err != nil {
		s.metrics.Refresh("error")
		return "", s.storageFailure("find admin for refresh", err)
	}
	if admin == nil || !admin.IsActive {
		s.metrics.Refresh("invalid_account")
		return "", apperrors.InvalidAccount()
	}
	if claims.TokenVersion != admin.TokenVersion {
		s.metrics.Refresh("invalidated")
		return "", apperrors.TokenInvalidated(http.StatusForbidden)
	}

	access, err := s.tokens.IssueAccess(admin.ID, admin.Role, admin.TokenVersion)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeInternal, "An unexpected error occurred", err)
	}
	s.metrics.Refresh("ok")
	return access, nil
}

// Logout invalidates every access and refresh token issued to adminID so far.
func (s *AuthService) Logout(ctx context.Context, adminID string) error {
	if _, err := s.admins.IncrementTokenVersion(ctx, adminID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.InvalidAccount()
		}
		return s.storageFailure("increment token version", err)
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, adminID string) (*model.AdminAccount, error) {
	admin, err := s.admins.FindByID(ctx, adminID)
	if err != nil {
		return nil, s.storageFailure("find admin", err)
	}
	if admin == nil {
		return nil, apperrors.NotFound("Admin")
	}
	return admin, nil
}

func (s *AuthService) storageFailure(op string, err error) error {
	log.Error().Err(err).Str("op", op).Msg("auth storage failure")
	return apperrors.StorageFailure(err)
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("unknown-account-placeholder")
		if err != nil {
			log.Error().Err(err).Msg("failed to prepare dummy password hash")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
