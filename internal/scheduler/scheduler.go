package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/jalshrestha/Outfit/internal/models"
)

// Refresher refreshes every source in one go.
type Refresher interface {
	RefreshAll(ctx context.Context, maxResults int, trigger string) (models.RefreshRun, error)
}

type Config struct {
	Interval   time.Duration
	MaxResults int
	RunOnStart bool
}

// Scheduler refreshes the cache at fixed wall-clock boundaries. With the
// default 12h interval that is 00:00 and 12:00 local time.
type Scheduler struct {
	refresher  Refresher
	interval   time.Duration
	maxResults int
	runOnStart bool
	now        func() time.Time
	logger     *slog.Logger
}

func New(refresher Refresher, cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 12 * time.Hour
	}
	return &Scheduler{
		refresher:  refresher,
		interval:   cfg.Interval,
		maxResults: cfg.MaxResults,
		runOnStart: cfg.RunOnStart,
		now:        time.Now,
		logger:     slog.Default().With("component", "scheduler"),
	}
}

// NextRun returns the first interval boundary after now, counting in wall
// clock time from local midnight of now's day. Boundaries stay on the same
// local hours across DST changes.
func NextRun(now time.Time, interval time.Duration) time.Time {
	y, m, d := now.Date()
	hour, minute, sec := now.Clock()
	wall := time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute +
		time.Duration(sec)*time.Second + time.Duration(now.Nanosecond())

	boundary := func(k time.Duration) time.Time {
		return time.Date(y, m, d, 0, 0, 0, int(k*interval), now.Location())
	}

	k := wall/interval + 1
	next := boundary(k)
	// a repeated hour after fall-back can put the wall boundary behind now
	for !next.After(now) {
		k++
		next = boundary(k)
	}
	return next
}

// Start blocks until ctx is cancelled. A failed refresh is logged and the
// loop waits for the next boundary.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("scheduler started", "interval", s.interval, "run_on_start", s.runOnStart)

	if s.runOnStart {
		s.logger.Info("running initial refresh")
		s.run(ctx)
	}

	for {
		next := NextRun(s.now(), s.interval)
		s.logger.Info("next refresh scheduled", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopping")
			return
		case <-timer.C:
			s.run(ctx)
		}
	}
}

func (s *Scheduler) run(ctx context.Context) {
	s.logger.Info("scheduled refresh starting")

	run, err := s.refresher.RefreshAll(ctx, s.maxResults, models.TriggerScheduler)
	if err != nil {
		s.logger.Error("scheduled refresh failed", "error", err)
		return
	}

	s.logger.Info("scheduled refresh completed",
		"total", run.ItemsRefreshed,
		"pinterest", run.PerSource[string(models.SourcePinterest)],
		"hollister", run.PerSource[string(models.SourceHollister)],
		"hm", run.PerSource[string(models.SourceHM)],
		"duration", run.Duration())

	for source, msg := range run.Errors {
		s.logger.Warn("source failed during scheduled refresh", "source", source, "error", msg)
	}
}
