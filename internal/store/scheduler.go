package store

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler drives the automatic schedule evaluation on a fixed cadence.
// Ticks never overlap: if an evaluation is still running when the next
// interval fires, that interval is skipped.
type Scheduler struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger
	tickMu   sync.Mutex
}

// NewScheduler constructs the tick loop. Interval defaults to one minute.
func NewScheduler(service *Service, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{service: service, interval: interval, logger: logger}
}

// Run evaluates the schedule until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Evaluate once at startup so a restart inside a scheduled window
	// converges immediately instead of waiting a full interval.
	s.TickOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.TickOnce(ctx)
		}
	}
}

// TickOnce runs a single schedule evaluation, skipping if one is already
// in flight.
func (s *Scheduler) TickOnce(ctx context.Context) {
	if !s.tickMu.TryLock() {
		s.logger.Warn("schedule tick still running, skipping")
		return
	}
	defer s.tickMu.Unlock()
	if s.service.Tick(ctx) {
		s.logger.Info("schedule applied store transition")
	}
}
