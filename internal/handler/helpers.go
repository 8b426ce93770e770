package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog"

	"github.com/noah-isme/heycoach-api/internal/middleware"
	"github.com/noah-isme/heycoach-api/internal/service"
	"github.com/noah-isme/heycoach-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// requestContext returns the request-scoped context carrying the correlation id.
func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

// detachedContext outlives the request. Fiber recycles the request context once the
// handler returns, so background work must not derive from it.
func detachedContext(c *fiber.Ctx) context.Context {
	return middleware.ContextWithCorrelation(context.Background(), fiberutils.CopyString(middleware.GetCorrelationID(c)))
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func validationFailed(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make(map[string]string, len(validationErrors))
		for _, fieldErr := range validationErrors {
			details[fieldErr.Field()] = fieldErr.Tag()
		}
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
	}
	return utils.SendError(c, fiber.StatusBadRequest, err.Error())
}

// aiFailure maps generator errors onto gateway statuses.
func aiFailure(c *fiber.Ctx, err error) (bool, error) {
	switch {
	case errors.Is(err, service.ErrAIUnavailable):
		return true, utils.SendError(c, fiber.StatusServiceUnavailable, "ai unavailable")
	case errors.Is(err, service.ErrAIProviderFailed):
		return true, utils.SendError(c, fiber.StatusBadGateway, "ai provider failed")
	default:
		return false, nil
	}
}

func requiredQuery(c *fiber.Ctx, key string) (string, bool) {
	value := strings.TrimSpace(c.Query(key))
	return value, value != ""
}
