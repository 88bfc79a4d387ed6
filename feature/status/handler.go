package status

import (
	"errors"

	"variant-manager/core/logger"
	"variant-manager/core/variant"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the variant status.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the status routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/status", h.HandleStatus)
	app.Post("/sync", h.HandleSync)
	app.Get("/check", h.HandleCheck)
	app.Get("/resolve", h.HandleResolve)
}

// HandleStatus returns the manager state.
// @Summary Watch Status
// @Description Returns the configured roots, whether the watch is running, the last full sync and event counters.
// @Tags status
// @Produce json
// @Success 200 {object} variant.Status
// @Router /status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

// HandleSync forces a full sync.
// @Summary Force Full Sync
// @Description Rebuilds the output tree from the main and channel trees. Concurrent requests share one run.
// @Tags status
// @Produce json
// @Success 200 {object} variant.SyncReport
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync [post]
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Forced full sync requested")

	report, err := h.service.Resync(c.Context())
	if err != nil {
		l.Error("Forced sync failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}

// HandleCheck reports drift.
// @Summary Drift Check
// @Description Compares the output tree against the main and channel trees and lists missing, stale and orphan entries.
// @Tags status
// @Produce json
// @Success 200 {object} reconcile.Plan
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /check [get]
func (h *Handler) HandleCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	plan, err := h.service.Check(c.Context())
	if err != nil {
		l.Error("Drift check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(plan)
}

// HandleResolve explains a path.
// @Summary Resolve Path
// @Description Maps a path, absolute inside an input tree or relative to the tree roots, to its tiers and output location.
// @Tags status
// @Produce json
// @Param path query string true "Path to resolve"
// @Success 200 {object} variant.Resolution
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /resolve [get]
func (h *Handler) HandleResolve(c *fiber.Ctx) error {
	path := c.Query("path")
	if path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "path is required"})
	}

	res, err := h.service.Resolve(path)
	if errors.Is(err, variant.ErrUnrelated) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(res)
}
