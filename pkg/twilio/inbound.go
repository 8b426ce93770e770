package twilio

import (
	"net/url"
	"strings"

	"github.com/twilio/twilio-go/client"
)

// InboundMessage is the form payload Twilio posts for an incoming WhatsApp message.
type InboundMessage struct {
	From        string
	To          string
	Body        string
	MessageSID  string
	ProfileName string
}

// ParseInbound reads the webhook form values.
func ParseInbound(form url.Values) InboundMessage {
	return InboundMessage{
		From:        strings.TrimSpace(form.Get("From")),
		To:          strings.TrimSpace(form.Get("To")),
		Body:        strings.TrimSpace(form.Get("Body")),
		MessageSID:  form.Get("MessageSid"),
		ProfileName: strings.TrimSpace(form.Get("ProfileName")),
	}
}

// PhoneNumber returns the sender without the channel prefix.
func (m InboundMessage) PhoneNumber() string {
	return StripWhatsApp(m.From)
}

// Valid reports whether the payload has a sender and a body.
func (m InboundMessage) Valid() bool {
	return m.From != "" && m.Body != ""
}

// SignatureValidator checks the X-Twilio-Signature header of webhook requests.
type SignatureValidator struct {
	validator client.RequestValidator
}

// NewSignatureValidator builds a validator bound to the account auth token.
func NewSignatureValidator(authToken string) *SignatureValidator {
	return &SignatureValidator{validator: client.NewRequestValidator(authToken)}
}

// Validate reports whether signature matches the full request URL and form params.
func (v *SignatureValidator) Validate(fullURL string, form url.Values, signature string) bool {
	params := make(map[string]string, len(form))
	for key := range form {
		params[key] = form.Get(key)
	}
	return v.validator.Validate(fullURL, params, signature)
}
