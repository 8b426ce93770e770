package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/heycoach-api/internal/dto"
	"github.com/noah-isme/heycoach-api/internal/service"
	"github.com/noah-isme/heycoach-api/internal/utils"
)

// CoachHandler serves free-form chats with the coach persona.
type CoachHandler struct {
	service service.CoachService
	logger  zerolog.Logger
}

// NewCoachHandler constructs the handler.
func NewCoachHandler(service service.CoachService, logger zerolog.Logger) *CoachHandler {
	return &CoachHandler{
		service: service,
		logger:  logger.With().Str("component", "coach_handler").Logger(),
	}
}

// Register attaches coach endpoints to the router group.
func (h *CoachHandler) Register(router fiber.Router) {
	router.Post("/chat", h.chat)
}

func (h *CoachHandler) chat(c *fiber.Ctx) error {
	var payload dto.CoachChatRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Chat(requestContext(c), payload)
	if err != nil {
		if isValidationError(err) {
			return validationFailed(c, err)
		}
		if handled, sendErr := aiFailure(c, err); handled {
			requestLogger(h.logger, c).Warn().Err(err).Msg("coach chat failed")
			return sendErr
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "coach replied", response)
}
