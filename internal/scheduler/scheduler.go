// Package scheduler runs the bot's periodic jobs on robfig/cron: the daily
// statistics report for admins and the idle session sweep.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/internal/models"
)

const jobTimeout = 2 * time.Minute

// StatsSource produces the counters for the report.
type StatsSource interface {
	Collect(ctx context.Context) (*models.Stats, error)
}

// Notifier delivers a report to one admin chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// Sweeper drops sessions idle for longer than maxIdle and returns how many.
type Sweeper interface {
	Sweep(maxIdle time.Duration) int
}

// DailyStats configures the admin report job.
type DailyStats struct {
	Spec   string
	Admins []int64
	Stats  StatsSource
	Notify Notifier
	Format func(*models.Stats) string
}

// Scheduler wraps a cron runner with the bot's jobs.
type Scheduler struct {
	cron    *cron.Cron
	loc     *time.Location
	mu      sync.Mutex
	started bool
	entries map[string]cron.EntryID
}

// New returns a scheduler evaluating specs in loc (UTC when nil).
func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cronLogger{}))),
		loc:     loc,
		entries: make(map[string]cron.EntryID),
	}
}

func (s *Scheduler) add(name, spec string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, spec, err)
	}
	if old, ok := s.entries[name]; ok {
		s.cron.Remove(old)
	}
	s.entries[name] = id
	logger.SCHED.Info("job scheduled", slog.String("job", name), slog.String("spec", spec))
	return nil
}

// AddDailyStats schedules the statistics report.
func (s *Scheduler) AddDailyStats(job DailyStats) error {
	if job.Stats == nil || job.Notify == nil || job.Format == nil {
		return fmt.Errorf("daily stats: stats, notifier and formatter are required")
	}
	return s.add("daily_stats", job.Spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		ReportStats(ctx, job)
	})
}

// AddSessionSweep schedules the idle session cleanup.
func (s *Scheduler) AddSessionSweep(spec string, store Sweeper, maxIdle time.Duration) error {
	if store == nil {
		return fmt.Errorf("session sweep: nil store")
	}
	return s.add("session_sweep", spec, func() {
		if n := store.Sweep(maxIdle); n > 0 {
			logger.SCHED.Info("sessions swept", slog.Int("total", n))
		}
	})
}

// Start runs the cron loop in the background. Calling it twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.cron.Start()
	s.started = true
}

// Stop halts scheduling and waits for running jobs or ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Entries returns the number of scheduled jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// ReportStats collects statistics once and sends them to every admin.
// It returns the number of admins notified.
func ReportStats(ctx context.Context, job DailyStats) int {
	st, err := job.Stats.Collect(ctx)
	if err != nil {
		logger.SCHED.Error("daily stats failed", slog.String("err", err.Error()))
		return 0
	}
	text := job.Format(st)
	sent := 0
	for _, id := range job.Admins {
		if err := job.Notify.Notify(ctx, id, text); err != nil {
			logger.SCHED.Warn("daily stats delivery failed",
				slog.Int64("chat_id", id),
				slog.String("err", err.Error()),
			)
			continue
		}
		sent++
	}
	logger.SCHED.Info("daily stats sent", slog.Int("total", len(job.Admins)), slog.Int("success", sent))
	return sent
}

// cronLogger adapts cron's logr-style logger to slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	logger.SCHED.Debug(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logger.SCHED.Error(msg, append([]any{"err", err.Error()}, keysAndValues...)...)
}
