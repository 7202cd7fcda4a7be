package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner deletes entries older than a cutoff. *Store implements it.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler runs retention pruning on a cron schedule.
type Scheduler struct {
	pruner    Pruner
	schedule  string
	retention time.Duration
	cron      *cron.Cron
	mu        sync.Mutex
	logger    *slog.Logger
	running   bool
	now       func() time.Time
}

// NewScheduler creates a scheduler deleting entries older than
// retentionDays on schedule, a standard five-field cron expression.
func NewScheduler(p Pruner, schedule string, retentionDays int, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		pruner:    p,
		schedule:  schedule,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		cron:      cron.New(),
		logger:    logger.With("component", "journal.scheduler"),
		now:       time.Now,
	}
}

// Start begins scheduled pruning. If the schedule is empty or retention is
// zero the scheduler does nothing. It stops when ctx is cancelled.
//
// Common cron expressions:
//   - "0 3 * * *"    - Daily at 3 AM
//   - "0 */6 * * *"  - Every 6 hours
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" || s.retention <= 0 {
		s.logger.Info("journal retention disabled, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("scheduled journal pruning failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("journal retention scheduler started",
		"schedule", s.schedule,
		"retention", s.retention.String(),
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunOnce prunes entries older than the retention period immediately.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)

	deleted, err := s.pruner.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		s.logger.Info("journal pruned", "deleted_count", deleted, "cutoff", cutoff)
	} else {
		s.logger.Debug("journal pruning completed, no entries deleted")
	}
	return deleted, nil
}

// Stop stops the scheduler and waits for a running prune to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("journal retention scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled pruning time, or nil when not scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
