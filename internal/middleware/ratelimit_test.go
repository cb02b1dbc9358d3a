package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/contentdesk/admin-api/internal/clock"
	apperrors "github.com/contentdesk/admin-api/internal/errors"
	"github.com/contentdesk/admin-api/internal/service"
)

func TestAuthRateLimitMiddleware(t *testing.T) {
	newHandler := func(max int, clk *clock.FakeClock) http.Handler {
		limiter := service.NewMemoryRateLimiter(service.RateLimitConfig{Max: max, Window: 15 * time.Minute}, clk)
		mw := NewAuthRateLimitMiddleware(limiter, "auth", clk, nil)
		return mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Credentials are irrelevant to the limiter; pretend they are wrong.
			w.WriteHeader(http.StatusUnauthorized)
		}))
	}

	request := func(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("the attempt after max gets 429 with Retry-After", func(t *testing.T) {
		clk := clock.NewFakeClock(time.Now())
		h := newHandler(5, clk)

		for i := 0; i < 5; i++ {
			rec := request(h, "203.0.113.9:4000")
			assert.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i+1)
		}

		rec := request(h, "203.0.113.9:4001")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, apperrors.ErrCodeTooManyAttempts, decodeError(t, rec).Code)
		assert.Equal(t, "900", rec.Header().Get("Retry-After"))
	})

	t.Run("other addresses are unaffected", func(t *testing.T) {
		clk := clock.NewFakeClock(time.Now())
		h := newHandler(1, clk)

		request(h, "203.0.113.9:4000")
		assert.Equal(t, http.StatusTooManyRequests, request(h, "203.0.113.9:4000").Code)
		assert.Equal(t, http.StatusUnauthorized, request(h, "198.51.100.2:4000").Code)
	})

	t.Run("window reset lets the address through again", func(t *testing.T) {
		clk := clock.NewFakeClock(time.Now())
		h := newHandler(1, clk)

		request(h, "203.0.113.9:4000")
		assert.Equal(t, http.StatusTooManyRequests, request(h, "203.0.113.9:4000").Code)

		clk.Advance(15 * time.Minute)
		assert.Equal(t, http.StatusUnauthorized, request(h, "203.0.113.9:4000").Code)
	})
}

func TestAPIRateLimit(t *testing.T) {
	h := APIRateLimit(2, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/admins", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
