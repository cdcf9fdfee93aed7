// Package sweeper periodically abandons quiz sessions that went idle.
package sweeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/abhisek/quizmind/internal/logger"
)

// DefaultSchedule runs the sweep every fifteen minutes.
const DefaultSchedule = "@every 15m"

// Sweeper is the job run on each tick.
type Sweeper interface {
	SweepAbandoned(ctx context.Context) (int64, error)
}

// Scheduler runs a Sweeper on a cron schedule.
type Scheduler struct {
	c   *cron.Cron
	job Sweeper
	log *logger.Logger

	// timeout bounds a single sweep.
	timeout time.Duration

	mu     sync.Mutex
	ctx    context.Context
	runs   int
	swept  int64
	lastAt time.Time
}

// New creates a Scheduler. An empty schedule selects DefaultSchedule.
func New(schedule string, job Sweeper, log *logger.Logger) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if log == nil {
		log = logger.NewNop()
	}
	s := &Scheduler{
		c:       cron.New(cron.WithLocation(time.UTC)),
		job:     job,
		log:     log.With("component", "sweeper"),
		timeout: time.Minute,
		ctx:     context.Background(),
	}
	if _, err := s.c.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Run starts the scheduler and blocks until ctx is done. A sweep in
// progress is allowed to finish, bounded by the per-sweep timeout.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.c.Start()
	s.log.Info("sweeper started", "entries", len(s.c.Entries()))
	<-ctx.Done()
	<-s.c.Stop().Done()
	runs, swept, lastAt := s.Stats()
	s.log.Info("sweeper stopped", "runs", runs, "swept", swept, "last_run_at", lastAt)
	return nil
}

// RunOnce performs one sweep immediately.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.job.SweepAbandoned(ctx)

	s.mu.Lock()
	s.runs++
	s.swept += n
	s.lastAt = time.Now()
	s.mu.Unlock()
	return n, err
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	if _, err := s.RunOnce(context.WithoutCancel(ctx)); err != nil {
		s.log.Error("sweep failed", "error", err)
	}
}

// Stats reports how many sweeps ran and how many sessions they abandoned.
func (s *Scheduler) Stats() (runs int, swept int64, lastAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs, s.swept, s.lastAt
}
