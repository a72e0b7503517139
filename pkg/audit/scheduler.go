package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler runs periodic chain verification against the audit storage.
// A broken chain is an operational alarm, not a request failure: the
// scheduler logs at error level and counts failures, it never stops the
// process.
type Scheduler struct {
	storage  Storage
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	mu       sync.Mutex
	running  bool
	failures int
}

// NewScheduler creates a verification scheduler. The schedule is a
// standard cron expression; an empty schedule disables verification.
func NewScheduler(storage Storage, schedule string) *Scheduler {
	return &Scheduler{
		storage:  storage,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "audit.scheduler"),
	}
}

// Start begins scheduled verification.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("audit scheduler already running")
	}
	if s.schedule == "" {
		s.logger.Info("verification schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.runVerification(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule verification: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("audit verification scheduler started", "schedule", s.schedule)
	return nil
}

// Stop stops the scheduler and waits for any running job to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("audit verification scheduler stopped")
	}
}

// Failures returns the number of failed verification runs since start.
func (s *Scheduler) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

func (s *Scheduler) runVerification(ctx context.Context) {
	n, err := VerifyChain(ctx, s.storage)
	if err != nil {
		s.mu.Lock()
		s.failures++
		s.mu.Unlock()

		s.logger.Error("audit chain verification failed",
			"verified_entries", n,
			"error", err,
		)
		return
	}
	s.logger.Info("audit chain verified", "entries", n)
}
