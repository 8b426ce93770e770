package service

import (
	"context"

	"github.com/noah-isme/heycoach-api/internal/models"
	"github.com/noah-isme/heycoach-api/internal/repository"
)

// MessageService reads stored session and assignment messages.
type MessageService interface {
	ListBySession(ctx context.Context, sessionID string) ([]models.Message, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.Message, error)
}

type messageService struct {
	repo repository.MessageRepository
}

// NewMessageService builds the message service.
func NewMessageService(repo repository.MessageRepository) MessageService {
	return &messageService{repo: repo}
}

func (s *messageService) ListBySession(ctx context.Context, sessionID string) ([]models.Message, error) {
	return s.repo.ListBySession(ctx, sessionID)
}

func (s *messageService) ListByAssignment(ctx context.Context, assignmentID string) ([]models.Message, error) {
	return s.repo.ListByAssignment(ctx, assignmentID)
}
