package status

import (
	"context"

	"variant-manager/core/reconcile"
	"variant-manager/core/variant"

	"go.uber.org/zap"
)

// Service exposes the manager state and drift check to HTTP handlers.
type Service struct {
	manager *variant.Manager
	checker *reconcile.Checker
	logger  *zap.Logger
}

// NewService creates a new status service.
func NewService(manager *variant.Manager, checker *reconcile.Checker, logger *zap.Logger) *Service {
	return &Service{
		manager: manager,
		checker: checker,
		logger:  logger,
	}
}

// Status returns the manager state.
func (s *Service) Status() variant.Status {
	return s.manager.Status()
}

// Resync forces a full sync. It never overlaps event handling.
func (s *Service) Resync(ctx context.Context) (*variant.SyncReport, error) {
	report, err := s.manager.Resync(ctx)
	if err != nil {
		return nil, err
	}
	s.checker.Invalidate()
	return report, nil
}

// Check reports drift between the output tree and its inputs.
func (s *Service) Check(ctx context.Context) (*reconcile.Plan, error) {
	return s.checker.Plan(ctx, reconcile.Options{})
}

// Resolve explains where path comes from and where it lands.
func (s *Service) Resolve(path string) (*variant.Resolution, error) {
	return s.manager.Resolve(path)
}
