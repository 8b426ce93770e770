package middleware

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/heycoach-api/internal/utils"
	"github.com/noah-isme/heycoach-api/pkg/twilio"
)

// SignatureVerifier validates signed webhook requests.
type SignatureVerifier interface {
	Validate(fullURL string, form url.Values, signature string) bool
}

// TwilioSignature rejects webhook POSTs whose X-Twilio-Signature does not match.
// publicBaseURL is the externally visible origin Twilio signs against.
func TwilioSignature(verifier SignatureVerifier, publicBaseURL string, logger zerolog.Logger) fiber.Handler {
	base := strings.TrimRight(publicBaseURL, "/")
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			return c.Next()
		}

		form, err := url.ParseQuery(string(c.Body()))
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid form payload")
		}

		fullURL := base + c.OriginalURL()
		if !verifier.Validate(fullURL, form, c.Get("X-Twilio-Signature")) {
			logger.Warn().
				Str("correlation_id", GetCorrelationID(c)).
				Str("url", fullURL).
				Msg("rejected webhook with invalid signature")
			return utils.SendError(c, fiber.StatusForbidden, "invalid signature")
		}

		return c.Next()
	}
}

var _ SignatureVerifier = (*twilio.SignatureValidator)(nil)
