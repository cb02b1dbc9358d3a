package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/contentdesk/admin-api/internal/clock"
)

// RateLimiter is a fixed-window counter keyed by an arbitrary string
// (a client address for the auth endpoints).
type RateLimiter interface {
	Allow(ctx context.Context, key string) (allowed bool, resetAt time.Time)
}

type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

type window struct {
	count int
	start time.Time
}

// MemoryRateLimiter keeps windows in process memory. Increment and compare
// happen under one mutex so bursts from one address cannot undercount.
type MemoryRateLimiter struct {
	mu          sync.Mutex
	windows     map[string]*window
	max         int
	window      time.Duration
	clock       clock.Clock
	lastCleanup time.Time
}

const memoryLimiterCleanupPeriod = 5 * time.Minute

func NewMemoryRateLimiter(cfg RateLimitConfig, clk clock.Clock) *MemoryRateLimiter {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &MemoryRateLimiter{
		windows:     make(map[string]*window),
		max:         cfg.Max,
		window:      cfg.Window,
		clock:       clk,
		lastCleanup: clk.Now(),
	}
}

func (l *MemoryRateLimiter) Allow(ctx context.Context, key string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if now.Sub(l.lastCleanup) >= memoryLimiterCleanupPeriod {
		l.prune(now)
	}

	w, ok := l.windows[key]
	if !ok || !now.Before(w.start.Add(l.window)) {
		w = &window{start: now}
		l.windows[key] = w
	}

	resetAt := w.start.Add(l.window)
	if w.count >= l.max {
		return false, resetAt
	}
	w.count++
	return true, resetAt
}

// Prune drops windows that have elapsed and returns how many were removed.
func (l *MemoryRateLimiter) Prune(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.prune(now)
}

func (l *MemoryRateLimiter) prune(now time.Time) int {
	l.lastCleanup = now
	removed := 0
	for key, w := range l.windows {
		if !now.Before(w.start.Add(l.window)) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// fixedWindowScript increments the counter and starts the window on the first hit.
// Returns {count, remaining ttl in ms}.
var fixedWindowScript = redis.NewScript(`
local key = KEYS[1]
local window = tonumber(ARGV[1])

local count = redis.call('INCR', key)
if count == 1 then
    redis.call('PEXPIRE', key, window)
end

local ttl = redis.call('PTTL', key)
if ttl < 0 then
    redis.call('PEXPIRE', key, window)
    ttl = window
end

return {count, ttl}
`)

// RedisRateLimiter shares windows between processes through Redis.
// It denies when Redis is unreachable.
type RedisRateLimiter struct {
	client *redis.Client
	prefix string
	max    int
	window time.Duration
	clock  clock.Clock
}

func NewRedisRateLimiter(client *redis.Client, prefix string, cfg RateLimitConfig, clk clock.Clock) *RedisRateLimiter {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &RedisRateLimiter{
		client: client,
		prefix: prefix,
		max:    cfg.Max,
		window: cfg.Window,
		clock:  clk,
	}
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, time.Time) {
	now := rl.clock.Now()
	fullKey := fmt.Sprintf("ratelimit:%s:%s", rl.prefix, key)

	result, err := fixedWindowScript.Run(
		ctx,
		rl.client,
		[]string{fullKey},
		rl.window.Milliseconds(),
	).Int64Slice()

	if err != nil {
		log.Warn().
			Err(err).
			Str("key", key).
			Msg("rate limit check failed, denying request for safety")
		return false, now.Add(rl.window)
	}

	if len(result) != 2 {
		log.Warn().Str("key", key).Msg("unexpected rate limit result, denying request for safety")
		return false, now.Add(rl.window)
	}

	resetAt := now.Add(time.Duration(result[1]) * time.Millisecond)
	return result[0] <= int64(rl.max), resetAt
}
