package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/contentdesk/admin-api/internal/clock"
	"github.com/contentdesk/admin-api/internal/config"
	"github.com/contentdesk/admin-api/internal/database"
	"github.com/contentdesk/admin-api/internal/handler"
	"github.com/contentdesk/admin-api/internal/jobs"
	"github.com/contentdesk/admin-api/internal/metrics"
	"github.com/contentdesk/admin-api/internal/redis"
	"github.com/contentdesk/admin-api/internal/repository"
	"github.com/contentdesk/admin-api/internal/service"
	"github.com/contentdesk/admin-api/internal/util"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.IsProduction() {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	setLogLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), time.Minute)
	if err := db.Migrate(migrateCtx); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	migrateCancel()

	clk := clock.RealClock{}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	hasher := util.NewPasswordHasher(cfg.BcryptCost)
	adminRepo := repository.NewAdminRepository(db.DB, hasher)

	tokens := service.NewTokenService(service.TokenConfig{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.JWTAccessTTL,
		RefreshTTL:    cfg.JWTRefreshTTL,
		Issuer:        cfg.JWTIssuer,
	}, clk)

	authService := service.NewAuthService(
		adminRepo, hasher, tokens, clk,
		service.LockoutPolicy{MaxAttempts: cfg.MaxLoginAttempts, Duration: cfg.LockDuration},
		m,
	)
	adminService := service.NewAdminService(adminRepo)

	limitCfg := service.RateLimitConfig{Max: cfg.AuthRateLimitMax, Window: cfg.AuthRateLimitWindow}
	var (
		authLimiter service.RateLimiter
		pruner      jobs.Pruner
	)
	switch cfg.RateLimitBackend {
	case config.RateLimitBackendRedis:
		redisClient, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected")
		authLimiter = service.NewRedisRateLimiter(redisClient.Client, redis.RateLimitPrefix(cfg.AppEnv), limitCfg, clk)
	default:
		memLimiter := service.NewMemoryRateLimiter(limitCfg, clk)
		authLimiter = memLimiter
		pruner = memLimiter
	}

	router := handler.NewRouter(handler.RouterDeps{
		Admins:       adminRepo,
		AuthService:  authService,
		AdminService: adminService,
		Tokens:       tokens,
		AuthLimiter:  authLimiter,
		Metrics:      m,
		DB:           db,
		Clock:        clk,
		Cookie: handler.CookieConfig{
			MaxAge: cfg.RefreshCookieMaxAge,
			Secure: cfg.IsProduction(),
		},
		APIRateLimitPerMin: cfg.APIRateLimitPerMin,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		IsProduction:       cfg.IsProduction(),
	})

	cleanupJob := jobs.NewCleanupJob(adminRepo, pruner, clk, m, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("env", cfg.AppEnv).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
