package statsync

import (
	"context"

	"go.uber.org/zap"
)

// Service exposes the orchestrator to the HTTP surface.
type Service struct {
	ctx          context.Context
	orchestrator *Orchestrator
	logger       *zap.Logger
}

// NewService creates a service. Passes it starts are bound to ctx, not to the
// request that triggered them.
func NewService(ctx context.Context, orchestrator *Orchestrator, logger *zap.Logger) *Service {
	return &Service{ctx: ctx, orchestrator: orchestrator, logger: logger}
}

// Status returns the current state.
func (s *Service) Status() Snapshot {
	return s.orchestrator.State().Snapshot()
}

// Trigger starts a pass in the background.
func (s *Service) Trigger(opts ...RunOption) error {
	done, err := s.orchestrator.Start(s.ctx, opts...)
	if err != nil {
		return err
	}
	go func() {
		if out := <-done; out.Err != nil {
			s.logger.Warn("Manual pass failed", zap.Error(out.Err))
		}
	}()
	return nil
}

// RunNow runs a pass and waits for its report.
func (s *Service) RunNow(opts ...RunOption) (*Report, error) {
	return s.orchestrator.Run(s.ctx, opts...)
}
