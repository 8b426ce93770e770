package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/heycoach-api/internal/config"
	"github.com/noah-isme/heycoach-api/internal/handler"
	"github.com/noah-isme/heycoach-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	UserHandler         *handler.UserHandler
	SessionHandler      *handler.SessionHandler
	AssignmentHandler   *handler.AssignmentHandler
	PracticeHandler     *handler.PracticeHandler
	MessageHandler      *handler.MessageHandler
	CoachHandler        *handler.CoachHandler
	ProgressHandler     *handler.ProgressHandler
	NotificationHandler *handler.NotificationHandler
	VoiceCallHandler    *handler.VoiceCallHandler
	WhatsAppHandler     *handler.WhatsAppHandler
	SeedHandler         *handler.SeedHandler
	// WebhookMiddleware guards the Twilio callbacks, e.g. signature validation.
	WebhookMiddleware fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	webhook := deps.WebhookMiddleware
	if webhook == nil {
		webhook = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.UserHandler != nil {
		deps.UserHandler.Register(api.Group("/users"))
	}
	if deps.SessionHandler != nil {
		deps.SessionHandler.Register(api.Group("/sessions"))
	}
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(api.Group("/assignments"))
	}
	if deps.PracticeHandler != nil {
		deps.PracticeHandler.Register(api.Group("/practice"))
	}
	if deps.MessageHandler != nil {
		deps.MessageHandler.Register(api.Group("/messages"))
	}
	if deps.CoachHandler != nil {
		deps.CoachHandler.Register(api.Group("/coach"))
	}
	if deps.ProgressHandler != nil {
		deps.ProgressHandler.Register(api.Group("/progress"))
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(api.Group("/notifications"))
	}

	// Twilio callbacks
	if deps.VoiceCallHandler != nil {
		voice := api.Group("/voice-calls")
		voice.Use("/status", webhook)
		deps.VoiceCallHandler.Register(voice)
	}
	if deps.WhatsAppHandler != nil {
		deps.WhatsAppHandler.Register(api.Group("/whatsapp", webhook))
	}

	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/seed"))
	}
}
