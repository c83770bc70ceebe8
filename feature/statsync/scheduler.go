package statsync

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Runner executes a pass. *Orchestrator implements it.
type Runner interface {
	Run(ctx context.Context, opts ...RunOption) (*Report, error)
}

// Scheduler triggers passes on a fixed interval.
type Scheduler struct {
	runner   Runner
	delay    time.Duration
	interval time.Duration
	logger   *zap.Logger
}

// NewScheduler creates a scheduler firing after delay, then every interval.
func NewScheduler(runner Runner, delay, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{runner: runner, delay: delay, interval: interval, logger: logger}
}

// Enabled reports whether the interval is positive.
func (s *Scheduler) Enabled() bool {
	return s.interval > 0
}

// Run blocks until ctx is done. Ticks that find a pass active are skipped.
func (s *Scheduler) Run(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	s.logger.Info("Scheduler started", zap.Duration("initial_delay", s.delay), zap.Duration("interval", s.interval))

	delay := time.NewTimer(s.delay)
	defer delay.Stop()
	select {
	case <-ctx.Done():
		return
	case <-delay.C:
	}
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.runner.Run(ctx); err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			s.logger.Debug("Scheduled pass skipped, a pass is already running")
			return
		}
		s.logger.Warn("Scheduled pass failed", zap.Error(err))
	}
}
