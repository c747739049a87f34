package learning

import (
	"context"
	"log/slog"
	"time"

	"github.com/medscreen/adaudit/internal/performance"
	"github.com/medscreen/adaudit/internal/settings"
	"github.com/medscreen/adaudit/pkg/lifecycle"
)

// Scheduler runs the background learning cycle on a fixed cadence: reload
// settings, recompute performance rows, then re-mine candidates. Each cycle
// is independent; a failed cycle logs and waits for the next tick.
type Scheduler struct {
	learning    System
	performance performance.System
	settings    settings.System
	interval    time.Duration
	logger      *slog.Logger
}

// NewScheduler creates a Scheduler driving the given subsystems.
func NewScheduler(
	learning System,
	perf performance.System,
	st settings.System,
	interval time.Duration,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		learning:    learning,
		performance: perf,
		settings:    st,
		interval:    interval,
		logger:      logger.With("system", "scheduler"),
	}
}

// Start registers the scheduler loop on the lifecycle coordinator. The loop
// exits when the coordinator's context is cancelled.
func (s *Scheduler) Start(lc *lifecycle.Coordinator) {
	lc.OnShutdown(func() {
		s.run(lc.Context())
	})
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("learning scheduler started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("learning scheduler stopped")
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	if _, err := s.settings.Reload(ctx); err != nil {
		s.logger.Error("settings reload failed", "error", err)
	}

	if _, err := s.performance.Recompute(ctx); err != nil {
		s.logger.Error("performance recompute failed", "error", err)
	}

	if _, err := s.learning.Aggregate(ctx); err != nil {
		s.logger.Error("learning aggregation failed", "error", err)
	}
}
