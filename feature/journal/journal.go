package journal

import (
	"variant-manager/core/database"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates a new journal feature. A nil journal disables it.
func NewFeature(j *database.Journal, logger *zap.Logger) *Feature {
	svc := NewService(j, logger)
	return &Feature{service: svc, handler: NewHandler(svc)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "journal"
}

// IsEnabled reports whether a journal is configured.
func (f *Feature) IsEnabled() bool {
	return f.service.journal != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
