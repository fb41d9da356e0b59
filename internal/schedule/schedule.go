// Package schedule runs batches at fixed daily windows, with a file lock
// enforcing a single batch process per data directory.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"autopress/internal/config"
	"autopress/internal/logging"
	"autopress/internal/pipeline"
)

// BatchRunner is the unit the scheduler drives; satisfied by the pipeline
// orchestrator.
type BatchRunner interface {
	RunOnce(ctx context.Context, opts pipeline.Options) ([]pipeline.Outcome, error)
}

// Scheduler sleeps until each configured window and runs one batch.
type Scheduler struct {
	cfg    *config.Config
	runner BatchRunner
	logger *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New constructs a Scheduler guarding runs with the config's lock file.
func New(cfg *config.Config, runner BatchRunner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		cfg:    cfg,
		runner: runner,
		logger: logger.With(logging.String(logging.FieldComponent, "schedule")),
		now:    time.Now,
	}
}

// Locked runs fn while holding the batch lock for the config's data
// directory. Every batch entry point goes through here so concurrent
// invocations against the same store are serialized. A lock held elsewhere
// means another batch is live; that is an error, not a wait.
func Locked(cfg *config.Config, fn func() error) error {
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire batch lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another batch holds the lock at %s", cfg.LockPath())
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}

// Window is a parsed daily run time.
type Window struct {
	Hour   int
	Minute int
}

// ParseWindows parses and sorts "HH:MM" window specs.
func ParseWindows(specs []string) ([]Window, error) {
	if len(specs) == 0 {
		return nil, errors.New("no schedule windows configured")
	}
	windows := make([]Window, 0, len(specs))
	for _, spec := range specs {
		var w Window
		if _, err := fmt.Sscanf(spec, "%d:%d", &w.Hour, &w.Minute); err != nil {
			return nil, fmt.Errorf("invalid window %q: %w", spec, err)
		}
		if w.Hour < 0 || w.Hour > 23 || w.Minute < 0 || w.Minute > 59 {
			return nil, fmt.Errorf("invalid window %q: out of range", spec)
		}
		windows = append(windows, w)
	}
	sort.Slice(windows, func(i, j int) bool {
		if windows[i].Hour != windows[j].Hour {
			return windows[i].Hour < windows[j].Hour
		}
		return windows[i].Minute < windows[j].Minute
	})
	return windows, nil
}

// NextRun returns the earliest window occurrence strictly after now.
func NextRun(now time.Time, windows []Window) time.Time {
	var best time.Time
	for _, w := range windows {
		candidate := time.Date(now.Year(), now.Month(), now.Day(), w.Hour, w.Minute, 0, 0, now.Location())
		if !candidate.After(now) {
			candidate = candidate.Add(24 * time.Hour)
		}
		if best.IsZero() || candidate.Before(best) {
			best = candidate
		}
	}
	return best
}

// Run loops until the context is canceled. Cancellation takes effect between
// batches; an in-flight batch finishes its current lead set.
func (s *Scheduler) Run(ctx context.Context) error {
	windows, err := ParseWindows(s.cfg.Schedule.Windows)
	if err != nil {
		return err
	}

	for {
		next := NextRun(s.now(), windows)
		s.logger.Info("sleeping until next window",
			logging.String("next_run", next.Format(time.RFC3339)))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(next)):
		}

		if err := s.RunLocked(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			s.logger.Error("scheduled batch failed", logging.Error(err))
			retry := time.Duration(s.cfg.Workflow.ErrorRetryInterval) * time.Second
			if retry > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(retry):
				}
			}
		}
	}
}

// RunLocked takes the batch lock, runs one batch, and releases the lock.
func (s *Scheduler) RunLocked(ctx context.Context) error {
	return Locked(s.cfg, func() error {
		outcomes, err := s.runner.RunOnce(ctx, pipeline.Options{})
		if err != nil {
			return err
		}
		s.logger.Info("scheduled batch complete", logging.Int("leads", len(outcomes)))
		return nil
	})
}
