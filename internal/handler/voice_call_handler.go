package handler

import (
	"encoding/xml"
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/heycoach-api/internal/dto"
	"github.com/noah-isme/heycoach-api/internal/service"
	"github.com/noah-isme/heycoach-api/internal/utils"
)

const voiceGreeting = "Hi, this is Hey Coach. Take a moment to reflect out loud on what you want to work on today. We are recording so your coach can follow up."

// maxVoiceSessionSeconds bounds how long the call stays open after the greeting.
const maxVoiceSessionSeconds = 900

type twimlResponse struct {
	XMLName xml.Name   `xml:"Response"`
	Say     twimlSay   `xml:"Say"`
	Pause   twimlPause `xml:"Pause"`
}

type twimlSay struct {
	Voice string `xml:"voice,attr"`
	Text  string `xml:",chardata"`
}

type twimlPause struct {
	Length int `xml:"length,attr"`
}

// VoiceCallHandler places outbound coaching calls and consumes Twilio callbacks.
type VoiceCallHandler struct {
	service service.VoiceCallService
	logger  zerolog.Logger
	tasks   *backgroundTasks
}

// NewVoiceCallHandler constructs the handler.
func NewVoiceCallHandler(service service.VoiceCallService, logger zerolog.Logger) *VoiceCallHandler {
	scoped := logger.With().Str("component", "voice_call_handler").Logger()
	return &VoiceCallHandler{
		service: service,
		logger:  scoped,
		tasks:   &backgroundTasks{logger: scoped},
	}
}

// Register attaches voice call endpoints to the router group.
func (h *VoiceCallHandler) Register(router fiber.Router) {
	router.Post("", h.initiate)
	router.Post("/status", h.status)
	router.All("/twiml", h.twiml)
}

// Wait blocks until in-flight status callbacks are processed.
func (h *VoiceCallHandler) Wait() {
	h.tasks.Wait()
}

func (h *VoiceCallHandler) initiate(c *fiber.Ctx) error {
	var payload dto.VoiceCallCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	call, err := h.service.Initiate(requestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "voice call initiated", call)
}

func (h *VoiceCallHandler) status(c *fiber.Ctx) error {
	form, err := url.ParseQuery(string(c.Body()))
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid form payload")
	}

	payload := dto.VoiceCallStatusCallback{
		CallSID:      form.Get("CallSid"),
		CallStatus:   form.Get("CallStatus"),
		CallDuration: form.Get("CallDuration"),
	}
	if payload.CallSID == "" || payload.CallStatus == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "CallSid and CallStatus are required")
	}

	ctx := detachedContext(c)
	logger := *requestLogger(h.logger, c)
	h.tasks.run("voice_call_status", func() {
		call, err := h.service.HandleStatus(ctx, payload)
		if err != nil {
			logger.Error().Err(err).Str("call_sid", payload.CallSID).Str("call_status", payload.CallStatus).Msg("failed to apply call status")
			return
		}
		logger.Debug().Str("call_id", call.ID).Str("status", call.Status).Msg("call status applied")
	})

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *VoiceCallHandler) twiml(c *fiber.Ctx) error {
	payload, err := xml.Marshal(twimlResponse{
		Say:   twimlSay{Voice: "alice", Text: voiceGreeting},
		Pause: twimlPause{Length: maxVoiceSessionSeconds},
	})
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to render twiml")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
	return c.Send(append([]byte(xml.Header), payload...))
}

func (h *VoiceCallHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return validationFailed(c, err)
	case errors.Is(err, service.ErrSessionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "session not found")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrMessagingUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, "messaging unavailable")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
