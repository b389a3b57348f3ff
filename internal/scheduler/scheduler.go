// Package scheduler runs the periodic rollover and reminder jobs on cron
// expressions.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"supcal/internal/services"
)

// Rollover is the job persisting refreshed occurrences.
type Rollover interface {
	ProcessDue(ctx context.Context, now time.Time) (services.RolloverReport, error)
}

// Reminders is the job notifying critical reminders.
type Reminders interface {
	NotifyCritical(ctx context.Context, now time.Time) (int, error)
}

// Config holds the cron expressions and the per-run timeout.
type Config struct {
	RolloverSpec string
	ReminderSpec string
	JobTimeout   time.Duration
	Location     *time.Location
}

// Scheduler owns a cron engine with up to two jobs. A nil Reminders skips
// the reminder job.
type Scheduler struct {
	engine    *cron.Cron
	rollover  Rollover
	reminders Reminders
	timeout   time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

func New(cfg Config, rollover Rollover, reminders Reminders, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	timeout := cfg.JobTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	s := &Scheduler{
		engine: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		rollover:  rollover,
		reminders: reminders,
		timeout:   timeout,
		now:       time.Now,
		logger:    logger,
	}

	if rollover != nil {
		if _, err := s.engine.AddFunc(cfg.RolloverSpec, s.runRollover); err != nil {
			return nil, fmt.Errorf("add rollover job %q: %w", cfg.RolloverSpec, err)
		}
	}
	if reminders != nil {
		if _, err := s.engine.AddFunc(cfg.ReminderSpec, s.runReminders); err != nil {
			return nil, fmt.Errorf("add reminder job %q: %w", cfg.ReminderSpec, err)
		}
	}
	return s, nil
}

// Start runs the jobs in the background.
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler", "jobs", len(s.engine.Entries()))
	s.engine.Start()
}

// Stop prevents new runs and waits for running jobs or ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	s.logger.Info("Stopping scheduler...")
	select {
	case <-s.engine.Stop().Done():
		s.logger.Info("Scheduler gracefully stopped")
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out", "error", ctx.Err())
	}
}

// RunOnce executes every configured job immediately, rollover first so
// reminders see fresh occurrences.
func (s *Scheduler) RunOnce() {
	if s.rollover != nil {
		s.runRollover()
	}
	if s.reminders != nil {
		s.runReminders()
	}
}

func (s *Scheduler) runRollover() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	report, err := s.rollover.ProcessDue(ctx, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "Rollover run failed", "error", err)
		return
	}
	s.logger.InfoContext(ctx, "Rollover run completed",
		"checked", report.Checked,
		"refreshed", report.Refreshed,
		"deactivated", report.Deactivated,
		"failed", report.Failed)
}

func (s *Scheduler) runReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	sent, err := s.reminders.NotifyCritical(ctx, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "Reminder run finished with errors", "sent", sent, "error", err)
		return
	}
	s.logger.InfoContext(ctx, "Reminder run completed", "sent", sent)
}
