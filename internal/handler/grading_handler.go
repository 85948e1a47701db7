package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/scriptsure-ai/grading-api/internal/assessment"
	"github.com/scriptsure-ai/grading-api/internal/dto"
	"github.com/scriptsure-ai/grading-api/internal/middleware"
	"github.com/scriptsure-ai/grading-api/internal/service"
	"github.com/scriptsure-ai/grading-api/internal/utils"
)

// GradingHandler manages the grading submission and history endpoints,
// including the websocket progress stream.
type GradingHandler struct {
	service   service.GradingService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewGradingHandler builds a grading handler instance.
func NewGradingHandler(service service.GradingService, validate *validator.Validate, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service:   service,
		validator: validate,
		logger:    logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("request_ctx", requestContext(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(h.handleStream))

	router.Get("", h.list)
	router.Post("", h.submit)
}

func (h *GradingHandler) submit(c *fiber.Ctx) error {
	ownerID := middleware.CurrentUserID(c)
	if ownerID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	payload := dto.GradingSubmitRequest{
		AssignmentID:   strings.TrimSpace(c.FormValue("assignment_id")),
		AssignmentType: strings.TrimSpace(c.FormValue("assignment_type")),
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	artifact, err := readArtifact(file)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "unable to read uploaded file")
	}

	outcome, err := h.service.Submit(requestContext(c), ownerID, payload, artifact, nil)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "Grading result saved successfully", outcome)
}

func (h *GradingHandler) list(c *fiber.Ctx) error {
	ownerID := middleware.CurrentUserID(c)
	if ownerID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	if assignmentID := queryAny(c, "assignment_id", "assignmentId"); assignmentID != "" {
		result, err := h.service.GetResult(requestContext(c), ownerID, assignmentID)
		if err != nil {
			return h.handleError(c, err)
		}

		return utils.SendSuccess(c, "grading result retrieved", result)
	}

	results, err := h.service.History(requestContext(c), ownerID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "grading results retrieved", results)
}

func (h *GradingHandler) handleStream(conn *websocket.Conn) {
	defer conn.Close()

	ownerID := websocketUserID(conn)
	if ownerID == "" {
		_ = conn.WriteJSON(dto.GradingStreamFrame{State: dto.StreamStateAborted, Error: "authentication required"})
		return
	}

	var request dto.GradingStreamRequest
	if err := conn.ReadJSON(&request); err != nil {
		_ = conn.WriteJSON(dto.GradingStreamFrame{State: dto.StreamStateAborted, Error: "invalid request frame"})
		return
	}

	if err := h.validator.Struct(request); err != nil {
		_ = conn.WriteJSON(dto.GradingStreamFrame{State: dto.StreamStateAborted, Error: "invalid request frame"})
		return
	}

	data, err := base64.StdEncoding.DecodeString(request.Artifact)
	if err != nil {
		_ = conn.WriteJSON(dto.GradingStreamFrame{State: dto.StreamStateAborted, Error: "artifact must be base64 encoded"})
		return
	}

	ctx, _ := conn.Locals("request_ctx").(context.Context)
	if ctx == nil {
		ctx = context.Background()
	}

	payload := dto.GradingSubmitRequest{
		AssignmentID:   request.AssignmentID,
		AssignmentType: request.AssignmentType,
	}
	artifact := assessment.Artifact{Name: request.FileName, Data: data}

	progress := func(p assessment.Progress) {
		_ = conn.WriteJSON(dto.GradingStreamFrame{
			State:      dto.StreamStateRunning,
			Stage:      p.Stage,
			StageIndex: p.StageIndex,
			Progress:   p.Percent,
		})
	}

	h.logger.Info().Str("owner_id", ownerID).Msg("grading stream started")

	outcome, err := h.service.Submit(ctx, ownerID, payload, artifact, progress)
	if err != nil {
		_ = conn.WriteJSON(dto.GradingStreamFrame{State: dto.StreamStateAborted, Error: safeStreamError(err)})
		h.logger.Warn().Err(err).Str("owner_id", ownerID).Msg("grading stream aborted")
		return
	}

	_ = conn.WriteJSON(dto.GradingStreamFrame{State: dto.StreamStateCompleted, Outcome: &outcome})
	h.logger.Info().Str("owner_id", ownerID).Msg("grading stream completed")
}

func (h *GradingHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrGradingResultNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "grading result not found")
	case errors.Is(err, service.ErrMissingOwner):
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	case errors.Is(err, assessment.ErrInvalidArtifact):
		return utils.SendError(c, fiber.StatusBadRequest, "artifact is not a readable image")
	case errors.Is(err, assessment.ErrAssessmentAborted):
		return utils.SendError(c, fiber.StatusRequestTimeout, "assessment run aborted")
	case errors.Is(err, assessment.ErrInvalidScoreInput):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid score input")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

// safeStreamError maps internal failures to user-safe websocket error text.
func safeStreamError(err error) string {
	switch {
	case errors.Is(err, assessment.ErrInvalidArtifact):
		return "artifact is not a readable image"
	case errors.Is(err, assessment.ErrAssessmentAborted):
		return "assessment run aborted"
	case errors.Is(err, service.ErrMissingOwner):
		return "authentication required"
	case isValidationError(err):
		return "invalid request frame"
	default:
		return "internal server error"
	}
}

func websocketUserID(conn *websocket.Conn) string {
	if value := conn.Locals(middleware.LocalUserID); value != nil {
		if id, ok := value.(string); ok {
			return strings.TrimSpace(id)
		}
	}
	return ""
}
