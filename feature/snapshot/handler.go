package snapshot

import (
	"errors"

	"player-statistics/core/logger"
	"player-statistics/feature/statsync/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// DownloadPath serves the database file.
const DownloadPath = "/player-statistics.db"

// Handler handles HTTP requests for snapshots.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the snapshot routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get(DownloadPath, h.HandleDownload)

	group := app.Group("/snapshot")
	group.Get("/hall-of-fame", h.HandleHallOfFame)
	group.Get("/:category", h.HandleCategory)
}

// HandleDownload streams a consistent copy of the SQLite database.
func (h *Handler) HandleDownload(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	exp, err := h.service.Export(c.UserContext())
	if err != nil {
		if errors.Is(err, ErrNotLocal) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		l.Error("Snapshot export failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Attachment("player-statistics.db")
	c.Set(fiber.HeaderContentType, ContentType)
	// The stream is closed, and the copy removed, once the response is written.
	return c.SendStream(exp, int(exp.Size))
}

// HandleHallOfFame returns the top of the hall of fame.
func (h *Handler) HandleHallOfFame(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	rows, err := h.service.HallOfFame(c.UserContext(), c.QueryInt("limit", DefaultLimit))
	if err != nil {
		l.Error("Hall of fame query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(rows)
}

// HandleCategory returns the ranked rows of one category, optionally
// filtered by the fuzzy query q.
func (h *Handler) HandleCategory(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	category, err := models.ParseCategory(c.Params("category"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	rows, err := h.service.Category(c.UserContext(), category, c.Query("q"), c.QueryInt("limit", DefaultLimit))
	if err != nil {
		l.Error("Category query failed", zap.String("category", string(category)), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(rows)
}
