package handler

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/heycoach-api/internal/service"
	"github.com/noah-isme/heycoach-api/internal/utils"
	"github.com/noah-isme/heycoach-api/pkg/twilio"
)

// WhatsAppHandler receives inbound WhatsApp messages. Twilio is acknowledged
// immediately and the message is processed in the background.
type WhatsAppHandler struct {
	service service.WhatsAppService
	logger  zerolog.Logger
	tasks   *backgroundTasks
}

// NewWhatsAppHandler constructs the handler.
func NewWhatsAppHandler(service service.WhatsAppService, logger zerolog.Logger) *WhatsAppHandler {
	scoped := logger.With().Str("component", "whatsapp_handler").Logger()
	return &WhatsAppHandler{
		service: service,
		logger:  scoped,
		tasks:   &backgroundTasks{logger: scoped},
	}
}

// Register attaches webhook endpoints to the router group.
func (h *WhatsAppHandler) Register(router fiber.Router) {
	router.Get("/webhook", h.verify)
	router.Post("/webhook", h.inbound)
}

// Wait blocks until in-flight inbound messages are processed.
func (h *WhatsAppHandler) Wait() {
	h.tasks.Wait()
}

func (h *WhatsAppHandler) verify(c *fiber.Ctx) error {
	return c.SendString("Webhook verified")
}

func (h *WhatsAppHandler) inbound(c *fiber.Ctx) error {
	form, err := url.ParseQuery(string(c.Body()))
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid form payload")
	}

	message := twilio.ParseInbound(form)
	logger := *requestLogger(h.logger, c)
	if !message.Valid() {
		logger.Warn().Msg("ignoring inbound message without sender or body")
		return c.SendString("OK")
	}

	ctx := detachedContext(c)
	h.tasks.run("whatsapp_inbound", func() {
		if err := h.service.HandleInbound(ctx, message); err != nil {
			logger.Error().Err(err).Str("message_sid", message.MessageSID).Msg("failed to process inbound message")
		}
	})

	return c.SendString("OK")
}
