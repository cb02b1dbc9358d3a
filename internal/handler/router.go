package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/contentdesk/admin-api/internal/clock"
	"github.com/contentdesk/admin-api/internal/config"
	apperrors "github.com/contentdesk/admin-api/internal/errors"
	"github.com/contentdesk/admin-api/internal/httputil"
	"github.com/contentdesk/admin-api/internal/metrics"
	"github.com/contentdesk/admin-api/internal/middleware"
	"github.com/contentdesk/admin-api/internal/repository"
	"github.com/contentdesk/admin-api/internal/service"
)

// Pinger reports storage health for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterDeps struct {
	Admins       repository.AdminRepository
	AuthService  *service.AuthService
	AdminService *service.AdminService
	Tokens       *service.TokenService
	AuthLimiter  service.RateLimiter
	Metrics      *metrics.Metrics
	DB           Pinger
	Clock        clock.Clock

	Cookie             CookieConfig
	APIRateLimitPerMin int
	CORSAllowedOrigins []string
	IsProduction       bool
}

func NewRouter(deps RouterDeps) http.Handler {
	if deps.Clock == nil {
		deps.Clock = clock.RealClock{}
	}
	var recorder metrics.Recorder = metrics.Nop{}
	if deps.Metrics != nil {
		recorder = deps.Metrics
	}

	authMiddleware := middleware.NewAuthMiddleware(deps.Tokens, deps.Admins)
	authRateLimit := middleware.NewAuthRateLimitMiddleware(deps.AuthLimiter, "auth", deps.Clock, recorder)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(deps.IsProduction)

	apiRateLimit := func(next http.Handler) http.Handler { return next }
	if deps.APIRateLimitPerMin > 0 {
		apiRateLimit = middleware.APIRateLimit(deps.APIRateLimitPerMin, recorder)
	}

	authHandler := NewAuthHandler(deps.AuthService, authMiddleware.Handler, authRateLimit.Handler, deps.Cookie)
	adminHandler := NewAdminHandler(deps.AdminService, authMiddleware.Handler, apiRateLimit)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)
	r.Use(middleware.CORS(deps.CORSAllowedOrigins))
	r.Use(securityHeadersMiddleware.Handler)

	r.Get("/health", healthHandler(deps.DB, deps.Clock))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Mount("/auth", authHandler.Routes())
	r.Mount("/admins", adminHandler.Routes())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, apperrors.NotFound("Route"))
	})

	return r
}

func healthHandler(db Pinger, clk clock.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), config.DBPingTimeout)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		httputil.WriteJSON(w, code, map[string]any{
			"status":    status,
			"timestamp": clk.Now().UnixMilli(),
		})
	}
}
