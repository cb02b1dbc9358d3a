package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/contentdesk/admin-api/internal/clock"
	"github.com/contentdesk/admin-api/internal/metrics"
)

// LockClearer resets accounts whose lock window has passed.
type LockClearer interface {
	ClearExpiredLocks(ctx context.Context, now time.Time) (int64, error)
}

// Pruner drops expired rate-limit windows held in process memory.
type Pruner interface {
	Prune(now time.Time) int
}

type CleanupJob struct {
	locks    LockClearer
	pruner   Pruner
	clock    clock.Clock
	metrics  metrics.Recorder
	interval time.Duration
	done     chan struct{}
	stopped  chan struct{}
}

// NewCleanupJob builds the periodic sweeper. pruner may be nil when the
// limiter state lives in Redis and expires on its own.
func NewCleanupJob(locks LockClearer, pruner Pruner, clk clock.Clock, recorder metrics.Recorder, interval time.Duration) *CleanupJob {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &CleanupJob{
		locks:    locks,
		pruner:   pruner,
		clock:    clk,
		metrics:  recorder,
		interval: interval,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

// Stop signals the loop and waits for an in-flight sweep to finish.
func (j *CleanupJob) Stop() {
	close(j.done)
	<-j.stopped
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	defer close(j.stopped)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := j.clock.Now()

	if j.locks != nil {
		count, err := j.locks.ClearExpiredLocks(ctx, now)
		if err != nil {
			log.Error().Err(err).Msg("failed to clear expired account locks")
		} else if count > 0 {
			j.metrics.LocksCleared(count)
			log.Info().Int64("count", count).Msg("cleared expired account locks")
		}
	}

	if j.pruner != nil {
		if n := j.pruner.Prune(now); n > 0 {
			log.Debug().Int("count", n).Msg("pruned rate limit windows")
		}
	}
}
