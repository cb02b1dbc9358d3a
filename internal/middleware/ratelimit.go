package middleware

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/contentdesk/admin-api/internal/audit"
	"github.com/contentdesk/admin-api/internal/clock"
	apperrors "github.com/contentdesk/admin-api/internal/errors"
	"github.com/contentdesk/admin-api/internal/httputil"
	"github.com/contentdesk/admin-api/internal/metrics"
	"github.com/contentdesk/admin-api/internal/service"
)

// AuthRateLimitMiddleware caps authentication attempts per client address.
// It sits in front of login only and is independent of account lockout.
type AuthRateLimitMiddleware struct {
	limiter service.RateLimiter
	prefix  string
	clock   clock.Clock
	metrics metrics.Recorder
}

func NewAuthRateLimitMiddleware(limiter service.RateLimiter, prefix string, clk clock.Clock, recorder metrics.Recorder) *AuthRateLimitMiddleware {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &AuthRateLimitMiddleware{
		limiter: limiter,
		prefix:  prefix,
		clock:   clk,
		metrics: recorder,
	}
}

func (m *AuthRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := httputil.ClientIP(r)

		key := fmt.Sprintf("ip:%s:%s", m.prefix, ip)
		allowed, resetAt := m.limiter.Allow(r.Context(), key)

		if !allowed {
			m.metrics.RateLimited(m.prefix)
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventRateLimitExceed,
				Details: map[string]interface{}{"scope": m.prefix, "path": r.URL.Path},
			})
			w.Header().Set("Retry-After", retryAfter(resetAt.Sub(m.clock.Now())))
			writeError(w, apperrors.TooManyAttempts())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func retryAfter(d time.Duration) string {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return fmt.Sprintf("%d", seconds)
}

// APIRateLimit is the coarse per-address limit for authenticated routes.
func APIRateLimit(requestsPerMinute int, recorder metrics.Recorder) func(http.Handler) http.Handler {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			recorder.RateLimited("api")
			writeError(w, apperrors.New(apperrors.ErrCodeTooManyAttempts, "Too many requests, try again later"))
		}),
	)
}
