package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentdesk/admin-api/internal/clock"
	"github.com/contentdesk/admin-api/internal/model"
)

func testTokenConfig() TokenConfig {
	return TokenConfig{
		AccessSecret:  "access-secret-for-tests-0123456789",
		RefreshSecret: "refresh-secret-for-tests-012345678",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "admin-api",
	}
}

func TestTokenService_RoundTrip(t *testing.T) {
	clk := clock.NewFakeClock(time.Now().UTC().Truncate(time.Second))
	svc := NewTokenService(testTokenConfig(), clk)

	t.Run("access token carries subject role and version", func(t *testing.T) {
		token, err := svc.IssueAccess("admin-1", model.RoleEditor, 3)
		require.NoError(t, err)

		claims, err := svc.VerifyAccess(token)
		require.NoError(t, err)
		assert.Equal(t, "admin-1", claims.Subject)
		assert.Equal(t, model.RoleEditor, claims.Role)
		assert.Equal(t, 3, claims.TokenVersion)
		assert.Equal(t, "admin-api", claims.Issuer)
		assert.True(t, clk.Now().Add(15*time.Minute).Equal(claims.ExpiresAt.Time))
	})

	t.Run("refresh token carries subject and version", func(t *testing.T) {
		token, err := svc.IssueRefresh("admin-1", 7)
		require.NoError(t, err)

		claims, err := svc.VerifyRefresh(token)
		require.NoError(t, err)
		assert.Equal(t, "admin-1", claims.Subject)
		assert.Equal(t, 7, claims.TokenVersion)
	})
}

func TestTokenService_Rejects(t *testing.T) {
	clk := clock.NewFakeClock(time.Now().UTC())
	svc := NewTokenService(testTokenConfig(), clk)

	access, err := svc.IssueAccess("admin-1", model.RoleAdmin, 0)
	require.NoError(t, err)
	refresh, err := svc.IssueRefresh("admin-1", 0)
	require.NoError(t, err)

	t.Run("refresh token is not accepted as access token", func(t *testing.T) {
		_, err := svc.VerifyAccess(refresh)
		assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	})

	t.Run("access token is not accepted as refresh token", func(t *testing.T) {
		_, err := svc.VerifyRefresh(access)
		assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	})

	t.Run("tampered signature", func(t *testing.T) {
		_, err := svc.VerifyAccess(access[:len(access)-2] + "xx")
		assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := svc.VerifyAccess("")
		assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		cfg := testTokenConfig()
		cfg.Issuer = "someone-else"
		other := NewTokenService(cfg, clk)
		token, err := other.IssueAccess("admin-1", model.RoleAdmin, 0)
		require.NoError(t, err)

		_, err = svc.VerifyAccess(token)
		assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	})

	t.Run("unexpected algorithm", func(t *testing.T) {
		claims := AccessClaims{
			Role: model.RoleAdmin,
			Type: tokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "admin-1",
				Issuer:    "admin-api",
				ExpiresAt: jwt.NewNumericDate(clk.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testTokenConfig().AccessSecret))
		require.NoError(t, err)

		_, err = svc.VerifyAccess(token)
		assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	})

	t.Run("missing expiry", func(t *testing.T) {
		claims := AccessClaims{
			Role: model.RoleAdmin,
			Type: tokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject: "admin-1",
				Issuer:  "admin-api",
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testTokenConfig().AccessSecret))
		require.NoError(t, err)

		_, err = svc.VerifyAccess(token)
		assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	})
}

func TestTokenService_Expiry(t *testing.T) {
	clk := clock.NewFakeClock(time.Now().UTC())
	svc := NewTokenService(testTokenConfig(), clk)

	access, err := svc.IssueAccess("admin-1", model.RoleAdmin, 0)
	require.NoError(t, err)
	refresh, err := svc.IssueRefresh("admin-1", 0)
	require.NoError(t, err)

	clk.Advance(16 * time.Minute)

	_, err = svc.VerifyAccess(access)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)

	_, err = svc.VerifyRefresh(refresh)
	assert.NoError(t, err)

	clk.Advance(7 * 24 * time.Hour)
	_, err = svc.VerifyRefresh(refresh)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}
