package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/heycoach-api/internal/dto"
	"github.com/noah-isme/heycoach-api/internal/service"
	"github.com/noah-isme/heycoach-api/internal/utils"
)

// UserHandler exposes user lookup and registration.
type UserHandler struct {
	service service.UserService
	logger  zerolog.Logger
}

// NewUserHandler constructs the handler.
func NewUserHandler(service service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger.With().Str("component", "user_handler").Logger(),
	}
}

// Register attaches user endpoints to the router group.
func (h *UserHandler) Register(router fiber.Router) {
	router.Get("", h.findByPhone)
	router.Post("", h.create)
}

func (h *UserHandler) findByPhone(c *fiber.Ctx) error {
	phone, ok := requiredQuery(c, "phone")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "phone query parameter is required")
	}

	user, err := h.service.FindByPhone(requestContext(c), phone)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "user not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "user retrieved", user)
}

func (h *UserHandler) create(c *fiber.Ctx) error {
	var payload dto.UserCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	user, created, err := h.service.FindOrCreate(requestContext(c), payload)
	if err != nil {
		if isValidationError(err) {
			return validationFailed(c, err)
		}
		return h.internalError(c, err)
	}

	if created {
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "user created", user)
	}
	return utils.SendSuccess(c, "user retrieved", user)
}

func (h *UserHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
