package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type correlationIDKey struct{}

var correlationKey = correlationIDKey{}

const (
	headerCorrelationID = "X-Correlation-ID"
	headerRequestID     = "X-Request-ID"
	localCorrelationID  = "correlation_id"
)

// twilioSIDFields are the callback form fields that identify the message or call a
// webhook is about. Using them as the correlation id ties webhook logs to the Twilio console.
var twilioSIDFields = []string{"MessageSid", "CallSid"}

// CorrelationID binds an identifier to every request. Explicit headers win, then the
// Twilio message or call SID of a form-encoded callback, then a fresh UUID.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := resolveCorrelationID(c)

		c.Locals(localCorrelationID, id)
		c.Set(headerCorrelationID, id)
		c.SetUserContext(context.WithValue(c.UserContext(), correlationKey, id))

		return c.Next()
	}
}

func resolveCorrelationID(c *fiber.Ctx) string {
	for _, header := range []string{headerCorrelationID, headerRequestID} {
		if value := strings.TrimSpace(c.Get(header)); value != "" {
			return value
		}
	}
	if sid := twilioSID(c); sid != "" {
		return sid
	}
	return uuid.NewString()
}

func twilioSID(c *fiber.Ctx) string {
	if c.Method() != fiber.MethodPost {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEApplicationForm) {
		return ""
	}
	for _, field := range twilioSIDFields {
		if sid := strings.TrimSpace(c.FormValue(field)); sid != "" {
			return sid
		}
	}
	return ""
}

// CorrelationIDFromContext extracts the correlation identifier from ctx, if present.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey).(string)
	return id
}

// GetCorrelationID returns the correlation identifier bound to the active request.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals(localCorrelationID).(string); ok && id != "" {
		return id
	}
	return CorrelationIDFromContext(c.UserContext())
}

// ContextWithCorrelation attaches the correlation identifier to ctx.
func ContextWithCorrelation(ctx context.Context, correlationID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	correlationID = strings.TrimSpace(correlationID)
	if correlationID == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey, correlationID)
}
