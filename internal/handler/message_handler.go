package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/heycoach-api/internal/service"
	"github.com/noah-isme/heycoach-api/internal/utils"
)

// MessageHandler lists stored conversation messages.
type MessageHandler struct {
	service service.MessageService
	logger  zerolog.Logger
}

// NewMessageHandler constructs the handler.
func NewMessageHandler(service service.MessageService, logger zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		service: service,
		logger:  logger.With().Str("component", "message_handler").Logger(),
	}
}

// Register attaches message endpoints to the router group.
func (h *MessageHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *MessageHandler) list(c *fiber.Ctx) error {
	ctx := requestContext(c)

	if sessionID, ok := requiredQuery(c, "sessionId"); ok {
		messages, err := h.service.ListBySession(ctx, sessionID)
		if err != nil {
			return h.internalError(c, err)
		}
		return utils.OK(c, messages, "messages retrieved", fiber.Map{"count": len(messages)})
	}

	if assignmentID, ok := requiredQuery(c, "assignmentId"); ok {
		messages, err := h.service.ListByAssignment(ctx, assignmentID)
		if err != nil {
			return h.internalError(c, err)
		}
		return utils.OK(c, messages, "messages retrieved", fiber.Map{"count": len(messages)})
	}

	return utils.SendError(c, fiber.StatusBadRequest, "sessionId or assignmentId query parameter is required")
}

func (h *MessageHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
