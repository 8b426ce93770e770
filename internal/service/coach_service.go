package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/heycoach-api/internal/dto"
	"github.com/noah-isme/heycoach-api/pkg/ai"
)

// CoachService answers free-form coaching chats.
type CoachService interface {
	Chat(ctx context.Context, payload dto.CoachChatRequest) (dto.CoachChatResponse, error)
}

type coachService struct {
	coach     CoachAI
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCoachService builds the chat service. coach may be nil when no provider is configured.
func NewCoachService(coach CoachAI, validate *validator.Validate, logger zerolog.Logger) CoachService {
	return &coachService{
		coach:     coach,
		validator: validate,
		logger:    logger.With().Str("component", "coach_service").Logger(),
	}
}

func (s *coachService) Chat(ctx context.Context, payload dto.CoachChatRequest) (dto.CoachChatResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CoachChatResponse{}, err
	}
	if s.coach == nil {
		return dto.CoachChatResponse{}, ErrAIUnavailable
	}

	messages := make([]ai.Message, 0, len(payload.Messages))
	for _, message := range payload.Messages {
		messages = append(messages, ai.Message{Role: ai.Role(message.Role), Content: message.Content})
	}

	reply, err := s.coach.Respond(ctx, ai.CoachingContext{Messages: messages, UserInfo: payload.UserInfo})
	if err != nil {
		s.logger.Error().Err(err).Msg("coach reply failed")
		return dto.CoachChatResponse{}, wrapAIError(err)
	}
	return dto.CoachChatResponse{Response: reply}, nil
}
