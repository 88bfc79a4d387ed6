package journal

import (
	"variant-manager/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the journal.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the journal routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/journal", h.HandleRecent)
}

// HandleRecent lists recent journal entries.
// @Summary Recent Journal Entries
// @Description Lists the most recent changes applied to the output tree, newest first.
// @Tags journal
// @Produce json
// @Param limit query int false "Maximum entries (default 50, max 500)"
// @Success 200 {array} database.Entry
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /journal [get]
func (h *Handler) HandleRecent(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be a positive integer"})
	}

	entries, err := h.service.Recent(c.Context(), limit)
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Journal query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(entries)
}
