package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/contentdesk/admin-api/internal/clock"
	"github.com/contentdesk/admin-api/internal/config"
	apperrors "github.com/contentdesk/admin-api/internal/errors"
	"github.com/contentdesk/admin-api/internal/metrics"
	"github.com/contentdesk/admin-api/internal/model"
	"github.com/contentdesk/admin-api/internal/repository"
	"github.com/contentdesk/admin-api/internal/service"
	"github.com/contentdesk/admin-api/internal/util"
)

type testServer struct {
	handler http.Handler
	repo    repository.AdminRepository
	clock   *clock.FakeClock
	tokens  *service.TokenService
	metrics *metrics.Metrics
}

type serverOption func(*RouterDeps)

func withAuthRateLimit(max int) serverOption {
	return func(d *RouterDeps) {
		d.AuthLimiter = service.NewMemoryRateLimiter(service.RateLimitConfig{Max: max, Window: 15 * time.Minute}, d.Clock)
	}
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	hasher := util.NewPasswordHasher(bcrypt.MinCost)
	repo := repository.NewMemoryAdminRepository(hasher, clk)
	tokens := service.NewTokenService(service.TokenConfig{
		AccessSecret:  "access-secret-for-tests-0123456789",
		RefreshSecret: "refresh-secret-for-tests-012345678",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "admin-api",
	}, clk)
	m := metrics.New(nil)

	deps := RouterDeps{
		Admins:       repo,
		AuthService:  service.NewAuthService(repo, hasher, tokens, clk, service.LockoutPolicy{MaxAttempts: 5, Duration: 15 * time.Minute}, m),
		AdminService: service.NewAdminService(repo),
		Tokens:       tokens,
		Metrics:      m,
		Clock:        clk,
		Cookie:       CookieConfig{MaxAge: 30 * 24 * time.Hour},
	}
	// Tests log in many times from one address; the limiter has its own tests.
	deps.AuthLimiter = service.NewMemoryRateLimiter(service.RateLimitConfig{Max: 1000, Window: 15 * time.Minute}, clk)
	for _, opt := range opts {
		opt(&deps)
	}

	return &testServer{
		handler: NewRouter(deps),
		repo:    repo,
		clock:   clk,
		tokens:  tokens,
		metrics: m,
	}
}

func (s *testServer) createAdmin(t *testing.T, name, email string, role model.Role) *model.AdminAccount {
	t.Helper()
	admin, err := s.repo.Create(context.Background(), model.CreateAdminParams{
		Name:     name,
		Email:    email,
		Password: "Secret123",
		Role:     role,
		IsActive: true,
	})
	require.NoError(t, err)
	return admin
}

type request struct {
	method  string
	path    string
	body    any
	token   string
	cookies []*http.Cookie
}

func (s *testServer) do(t *testing.T, req request) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if req.body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(req.body))
	}
	r := httptest.NewRequest(req.method, req.path, &buf)
	r.RemoteAddr = "203.0.113.9:4000"
	if req.body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	for _, c := range req.cookies {
		r.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, r)
	return rec
}

type loginData struct {
	AccessToken string     `json:"accessToken"`
	Admin       loginAdmin `json:"admin"`
}

func (s *testServer) login(t *testing.T, email, password string) (*httptest.ResponseRecorder, loginData) {
	t.Helper()
	rec := s.do(t, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   map[string]string{"email": email, "password": password},
	})
	var out loginData
	if rec.Code == http.StatusOK {
		decodeData(t, rec, &out)
	}
	return rec, out
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, v))
}

type errorBody struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Code    apperrors.ErrorCode `json:"code"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Success)
	return body
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == config.RefreshCookieName {
			return c
		}
	}
	return nil
}
