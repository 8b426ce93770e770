package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/heycoach-api/internal/models"
	"github.com/noah-isme/heycoach-api/internal/observability"
	"github.com/noah-isme/heycoach-api/internal/repository"
	"github.com/noah-isme/heycoach-api/pkg/ai"
	"github.com/noah-isme/heycoach-api/pkg/twilio"
)

// Replies sent over the WhatsApp channel.
const (
	welcomeMessage = "Welcome to Hey Coach! 🎯\n\nI'm your executive coach. How can I help you today?\n\nCommands:\n" +
		"/help - Show available commands\n/session - Start a coaching session\n/assignments - View your assignments\n/progress - Check your progress"
	helpMessage = "📚 Available Commands:\n\n/session - Start a new coaching session\n/endsession - End current session\n" +
		"/assignments - View your assignments\n/progress - Check your progress\n/schedule - Schedule a voice call\n/help - Show this message"
	sessionExistsMessage  = "You already have an active session. Use /endsession to end it first."
	sessionStartedMessage = "🎯 New coaching session started!\n\nWhat would you like to focus on today?"
	noSessionMessage      = "No active session found."
	sessionEndedMessage   = "✅ Session completed! Great work today.\n\nType /session when you're ready for another session."
	unknownCommandMessage = "Unknown command. Type /help to see available commands."
	sessionHintMessage    = "Start a coaching session with /session or type /help for more options."
	coachUnavailableReply = "Sorry, I can't respond right now. Please try again in a moment."
	defaultUserName       = "User"
)

// WhatsAppService handles inbound WhatsApp messages.
type WhatsAppService interface {
	HandleInbound(ctx context.Context, message twilio.InboundMessage) error
}

// WhatsAppDeps groups the collaborators of the WhatsApp channel.
type WhatsAppDeps struct {
	Users         repository.UserRepository
	Messages      repository.MessageRepository
	Sessions      SessionService
	Coach         CoachAI
	Sender        MessageSender
	PublicBaseURL string
	Logger        zerolog.Logger
}

type whatsappService struct {
	users     repository.UserRepository
	messages  repository.MessageRepository
	sessions  SessionService
	coach     CoachAI
	sender    MessageSender
	baseURL   string
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewWhatsAppService builds the inbound channel handler.
func NewWhatsAppService(deps WhatsAppDeps) WhatsAppService {
	return &whatsappService{
		users:     deps.Users,
		messages:  deps.Messages,
		sessions:  deps.Sessions,
		coach:     deps.Coach,
		sender:    deps.Sender,
		baseURL:   strings.TrimRight(deps.PublicBaseURL, "/"),
		sanitizer: bluemonday.StrictPolicy(),
		logger:    deps.Logger.With().Str("component", "whatsapp_service").Logger(),
		now:       time.Now,
	}
}

func (s *whatsappService) HandleInbound(ctx context.Context, message twilio.InboundMessage) error {
	phone := message.PhoneNumber()
	if phone == "" {
		return errors.New("inbound message without sender")
	}
	body := plainText(s.sanitizer, message.Body)

	name := strings.TrimSpace(message.ProfileName)
	if name == "" {
		name = defaultUserName
	}
	user, created, err := s.users.FindOrCreate(ctx, phone, name)
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}
	if created {
		observability.WhatsAppMessages().WithLabelValues("welcome").Inc()
		s.logger.Info().Str("user_id", user.ID).Msg("new whatsapp user")
		return s.reply(ctx, phone, welcomeMessage)
	}

	if strings.HasPrefix(body, "/") {
		observability.WhatsAppMessages().WithLabelValues("command").Inc()
		return s.handleCommand(ctx, phone, body, user)
	}

	session, err := s.sessions.Active(ctx, user.ID)
	if err != nil {
		if errors.Is(err, ErrNoActiveSession) {
			observability.WhatsAppMessages().WithLabelValues("hint").Inc()
			return s.reply(ctx, phone, sessionHintMessage)
		}
		return err
	}

	observability.WhatsAppMessages().WithLabelValues("chat").Inc()
	return s.converse(ctx, phone, body, user, session)
}

func (s *whatsappService) handleCommand(ctx context.Context, phone, body string, user models.User) error {
	command := strings.ToLower(strings.Fields(body)[0])

	switch command {
	case "/help":
		return s.reply(ctx, phone, helpMessage)
	case "/session":
		title := "Session " + s.now().UTC().Format("1/2/2006")
		if _, err := s.sessions.StartActive(ctx, user.ID, title); err != nil {
			if errors.Is(err, ErrActiveSessionExists) {
				return s.reply(ctx, phone, sessionExistsMessage)
			}
			return err
		}
		return s.reply(ctx, phone, sessionStartedMessage)
	case "/endsession":
		if _, err := s.sessions.EndActive(ctx, user.ID); err != nil {
			if errors.Is(err, ErrNoActiveSession) {
				return s.reply(ctx, phone, noSessionMessage)
			}
			return err
		}
		return s.reply(ctx, phone, sessionEndedMessage)
	case "/assignments":
		return s.reply(ctx, phone, "📋 View your assignments in the web dashboard:\n"+s.link("/assignments"))
	case "/progress":
		return s.reply(ctx, phone, "📊 View your progress dashboard:\n"+s.link("/progress"))
	case "/schedule":
		return s.reply(ctx, phone, "📞 Schedule a voice coaching call:\n"+s.link("/sessions"))
	default:
		return s.reply(ctx, phone, unknownCommandMessage)
	}
}

func (s *whatsappService) converse(ctx context.Context, phone, body string, user models.User, session models.CoachingSession) error {
	sessionID := session.ID
	if err := s.messages.Create(ctx, &models.Message{
		SessionID: &sessionID,
		UserID:    user.ID,
		Role:      models.MessageRoleUser,
		Content:   body,
	}); err != nil {
		return fmt.Errorf("store inbound message: %w", err)
	}

	if s.coach == nil {
		return s.reply(ctx, phone, coachUnavailableReply)
	}

	history, err := s.messages.ListBySession(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("load session history: %w", err)
	}

	reply, err := s.coach.Respond(ctx, ai.CoachingContext{
		Messages: sessionHistory(history),
		UserInfo: &ai.UserInfo{Name: user.Name},
	})
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", session.ID).Msg("coach reply failed")
		return s.reply(ctx, phone, coachUnavailableReply)
	}

	if err := s.messages.Create(ctx, &models.Message{
		SessionID: &sessionID,
		UserID:    user.ID,
		Role:      models.MessageRoleAssistant,
		Content:   reply,
	}); err != nil {
		return fmt.Errorf("store coach reply: %w", err)
	}

	return s.reply(ctx, phone, reply)
}

func (s *whatsappService) reply(ctx context.Context, phone, body string) error {
	if _, err := s.sender.SendMessage(ctx, phone, body); err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}
	return nil
}

func (s *whatsappService) link(path string) string {
	return s.baseURL + path
}

// sessionHistory keeps user and assistant messages in chronological order.
func sessionHistory(messages []models.Message) []ai.Message {
	out := make([]ai.Message, 0, len(messages))
	for _, message := range messages {
		switch message.Role {
		case models.MessageRoleUser:
			out = append(out, ai.Message{Role: ai.RoleUser, Content: message.Content})
		case models.MessageRoleAssistant:
			out = append(out, ai.Message{Role: ai.RoleAssistant, Content: message.Content})
		}
	}
	return out
}
