package journal

import (
	"context"

	"variant-manager/core/database"

	"go.uber.org/zap"
)

// maxLimit caps a single journal page.
const maxLimit = 500

// Service reads the reconcile journal.
type Service struct {
	journal *database.Journal
	logger  *zap.Logger
}

// NewService creates a new journal service.
func NewService(journal *database.Journal, logger *zap.Logger) *Service {
	return &Service{journal: journal, logger: logger}
}

// Recent returns up to limit entries, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]database.Entry, error) {
	if limit > maxLimit {
		limit = maxLimit
	}
	return s.journal.Recent(ctx, limit)
}
