package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password", "jwt-secret",
}

const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	JWTAccessSecret     string        `env:"JWT_ACCESS_SECRET,required"`
	JWTRefreshSecret    string        `env:"JWT_REFRESH_SECRET,required"`
	JWTIssuer           string        `env:"JWT_ISSUER" envDefault:"admin-api"`
	JWTAccessTTL        time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`
	JWTRefreshTTL       time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`
	RefreshCookieMaxAge time.Duration `env:"REFRESH_COOKIE_MAX_AGE" envDefault:"720h"`

	BcryptCost       int           `env:"BCRYPT_COST" envDefault:"12"`
	MaxLoginAttempts int           `env:"MAX_LOGIN_ATTEMPTS" envDefault:"5"`
	LockDuration     time.Duration `env:"LOCK_DURATION" envDefault:"15m"`

	AuthRateLimitMax    int           `env:"AUTH_RATE_LIMIT_MAX" envDefault:"5"`
	AuthRateLimitWindow time.Duration `env:"AUTH_RATE_LIMIT_WINDOW" envDefault:"15m"`
	RateLimitBackend    string        `env:"RATE_LIMIT_BACKEND" envDefault:"memory"`
	APIRateLimitPerMin  int           `env:"API_RATE_LIMIT_PER_MIN" envDefault:"120"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func (c *Config) Validate() error {
	if c.JWTAccessSecret == c.JWTRefreshSecret {
		return fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.JWTAccessTTL <= 0 || c.JWTRefreshTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL and JWT_REFRESH_TTL must be positive")
	}
	if c.MaxLoginAttempts <= 0 {
		return fmt.Errorf("MAX_LOGIN_ATTEMPTS must be positive")
	}
	if c.AuthRateLimitMax <= 0 || c.AuthRateLimitWindow <= 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT_MAX and AUTH_RATE_LIMIT_WINDOW must be positive")
	}

	switch c.RateLimitBackend {
	case RateLimitBackendMemory:
	case RateLimitBackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when RATE_LIMIT_BACKEND=redis")
		}
	default:
		return fmt.Errorf("RATE_LIMIT_BACKEND must be %q or %q", RateLimitBackendMemory, RateLimitBackendRedis)
	}

	if c.IsProduction() {
		if err := validateSecret("JWT_ACCESS_SECRET", c.JWTAccessSecret); err != nil {
			return err
		}
		if err := validateSecret("JWT_REFRESH_SECRET", c.JWTRefreshSecret); err != nil {
			return err
		}

		if c.BcryptCost < 10 {
			log.Warn().Int("cost", c.BcryptCost).Msg("BCRYPT_COST below 10 in production")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
