package statsync

import (
	"errors"

	"player-statistics/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the sync surface.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Get("/status", h.HandleStatus)
	group.Post("/", h.HandleTrigger)
}

// HandleStatus returns the state machine phase, progress and last sync time.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

// HandleTrigger starts a pass. With wait=true the response carries the report.
// full=true ignores the stored last update.
func (h *Handler) HandleTrigger(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var opts []RunOption
	if c.QueryBool("full") {
		opts = append(opts, ForceFull())
	}

	if !c.QueryBool("wait") {
		if err := h.service.Trigger(opts...); err != nil {
			return h.triggerError(c, l, err)
		}
		l.Info("Sync pass triggered")
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status": "started",
		})
	}

	report, err := h.service.RunNow(opts...)
	if err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			return h.triggerError(c, l, err)
		}
		l.Error("Sync pass failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":  err.Error(),
			"report": report,
		})
	}
	return c.JSON(report)
}

func (h *Handler) triggerError(c *fiber.Ctx, l *zap.Logger, err error) error {
	if errors.Is(err, ErrAlreadyRunning) {
		l.Info("Sync pass rejected, already running")
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":  err.Error(),
			"status": h.service.Status().Status,
		})
	}
	l.Error("Failed to trigger sync pass", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}
