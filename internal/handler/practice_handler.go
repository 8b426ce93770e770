package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/heycoach-api/internal/dto"
	"github.com/noah-isme/heycoach-api/internal/service"
	"github.com/noah-isme/heycoach-api/internal/utils"
)

// PracticeHandler serves the practice-client simulation.
type PracticeHandler struct {
	service service.PracticeService
	logger  zerolog.Logger
}

// NewPracticeHandler constructs the handler.
func NewPracticeHandler(service service.PracticeService, logger zerolog.Logger) *PracticeHandler {
	return &PracticeHandler{
		service: service,
		logger:  logger.With().Str("component", "practice_handler").Logger(),
	}
}

// Register attaches practice endpoints to the router group.
func (h *PracticeHandler) Register(router fiber.Router) {
	router.Post("/start", h.start)
	router.Get("/assignment/:assignmentId", h.listByAssignment)
	router.Get("/assignment/:assignmentId/summary", h.summary)
	router.Post("/:attemptId/message", h.advance)
	router.Post("/:attemptId/complete", h.complete)
}

func (h *PracticeHandler) start(c *fiber.Ctx) error {
	var payload dto.StartPracticeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	attempt, err := h.service.Start(requestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "practice attempt started", attempt)
}

func (h *PracticeHandler) advance(c *fiber.Ctx) error {
	var payload dto.PracticeMessageRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Advance(requestContext(c), strings.TrimSpace(c.Params("attemptId")), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "client replied", response)
}

func (h *PracticeHandler) complete(c *fiber.Ctx) error {
	var payload dto.CompletePracticeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	if err := h.service.Complete(requestContext(c), strings.TrimSpace(c.Params("attemptId")), payload); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "practice attempt completed", dto.PracticeCompleteResponse{Success: true})
}

func (h *PracticeHandler) listByAssignment(c *fiber.Ctx) error {
	attempts, err := h.service.ListByAssignment(requestContext(c), strings.TrimSpace(c.Params("assignmentId")))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OK(c, attempts, "practice attempts retrieved", fiber.Map{"count": len(attempts)})
}

func (h *PracticeHandler) summary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(requestContext(c), strings.TrimSpace(c.Params("assignmentId")))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "practice summary generated", summary)
}

func (h *PracticeHandler) handleError(c *fiber.Ctx, err error) error {
	if handled, sendErr := aiFailure(c, err); handled {
		requestLogger(h.logger, c).Warn().Err(err).Msg("practice generation failed")
		return sendErr
	}

	switch {
	case isValidationError(err):
		return validationFailed(c, err)
	case errors.Is(err, service.ErrAttemptNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "practice attempt not found")
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrAttemptAlreadyCompleted),
		errors.Is(err, service.ErrAttemptNotInProgress),
		errors.Is(err, service.ErrConcurrentAdvance):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNoCompletedAttempts):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNoScoredTurns):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
