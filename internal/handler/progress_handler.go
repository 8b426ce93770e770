package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/heycoach-api/internal/dto"
	"github.com/noah-isme/heycoach-api/internal/service"
	"github.com/noah-isme/heycoach-api/internal/utils"
)

// ProgressHandler exposes progress metrics and the dashboard aggregate.
type ProgressHandler struct {
	service service.ProgressService
	logger  zerolog.Logger
}

// NewProgressHandler constructs the handler.
func NewProgressHandler(service service.ProgressService, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		service: service,
		logger:  logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register attaches progress endpoints to the router group.
func (h *ProgressHandler) Register(router fiber.Router) {
	router.Post("", h.record)
	router.Get("/:userId", h.metrics)
	router.Get("/:userId/dashboard", h.dashboard)
}

func (h *ProgressHandler) metrics(c *fiber.Ctx) error {
	query := dto.ProgressQuery{
		Period:    strings.TrimSpace(c.Query("period")),
		StartDate: strings.TrimSpace(c.Query("startDate")),
		EndDate:   strings.TrimSpace(c.Query("endDate")),
	}

	response, err := h.service.Metrics(requestContext(c), strings.TrimSpace(c.Params("userId")), query)
	if err != nil {
		if isValidationError(err) {
			return validationFailed(c, err)
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "progress metrics retrieved", response)
}

func (h *ProgressHandler) record(c *fiber.Ctx) error {
	var payload dto.RecordMetricRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	metric, err := h.service.Record(requestContext(c), payload)
	if err != nil {
		if isValidationError(err) {
			return validationFailed(c, err)
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "progress metric recorded", metric)
}

func (h *ProgressHandler) dashboard(c *fiber.Ctx) error {
	response, err := h.service.Dashboard(requestContext(c), strings.TrimSpace(c.Params("userId")))
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "dashboard retrieved", response)
}

func (h *ProgressHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
