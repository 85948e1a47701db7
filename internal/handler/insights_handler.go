package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/scriptsure-ai/grading-api/internal/middleware"
	"github.com/scriptsure-ai/grading-api/internal/models"
	"github.com/scriptsure-ai/grading-api/internal/service"
	"github.com/scriptsure-ai/grading-api/internal/utils"
)

// InsightsHandler serves the dashboard telemetry panels and demo seeding.
type InsightsHandler struct {
	service service.InsightsService
	logger  zerolog.Logger
}

// NewInsightsHandler builds an insights handler instance.
func NewInsightsHandler(service service.InsightsService, logger zerolog.Logger) *InsightsHandler {
	return &InsightsHandler{
		service: service,
		logger:  logger.With().Str("component", "insights_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *InsightsHandler) Register(router fiber.Router) {
	router.Get("/dashboard", h.dashboard)
	router.Post("/seed", middleware.WithAuth(h.seed, middleware.AuthOptions{Role: models.RoleAdmin}))
}

func (h *InsightsHandler) dashboard(c *fiber.Ctx) error {
	ownerID := middleware.CurrentUserID(c)
	if ownerID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	response, err := h.service.Dashboard(requestContext(c), ownerID)
	if err != nil {
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "dashboard retrieved", response)
}

func (h *InsightsHandler) seed(c *fiber.Ctx) error {
	summary, err := h.service.Seed(requestContext(c))
	if err != nil {
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "demo data seeded", summary)
}
