package main

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/marco/movieDeck/internal/browse"
)

// warmFunc runs one warm pass.
type warmFunc func(ctx context.Context) browse.WarmSummary

// warmScheduler re-warms the cache on an interval. A pass that is still
// running when the next tick fires causes that tick to be skipped.
type warmScheduler struct {
	interval   time.Duration
	warm       warmFunc
	logger     *slog.Logger
	inProgress atomic.Bool
}

// run warms once immediately and then on every tick until ctx is done.
func (s *warmScheduler) run(ctx context.Context) {
	s.logger.Info("scheduled warming started", "interval", s.interval)
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			go s.runOnce(ctx)
		case <-ctx.Done():
			s.logger.Info("scheduled warming stopped")
			return
		}
	}
}

// runOnce reports whether the pass ran.
func (s *warmScheduler) runOnce(ctx context.Context) bool {
	if !s.inProgress.CompareAndSwap(false, true) {
		s.logger.Warn("scheduled warm skipped: previous pass still running",
			"interval", s.interval,
			"suggestion", "consider a longer --every interval")
		return false
	}
	defer s.inProgress.Store(false)

	start := time.Now()
	summary := s.warm(ctx)
	s.logger.Info("scheduled warm finished",
		"duration", time.Since(start).Round(time.Millisecond),
		"fetched", summary.Fetched,
		"failed", summary.Failed,
	)
	return true
}
