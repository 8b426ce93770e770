package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/heycoach-api/internal/dto"
	"github.com/noah-isme/heycoach-api/internal/models"
	"github.com/noah-isme/heycoach-api/internal/repository"
)

// SessionService manages coaching sessions.
type SessionService interface {
	ListByUser(ctx context.Context, userID string) ([]models.CoachingSession, error)
	Get(ctx context.Context, id string) (models.CoachingSession, error)
	Create(ctx context.Context, payload dto.SessionCreateRequest) (models.CoachingSession, error)
	Update(ctx context.Context, id string, payload dto.SessionUpdateRequest) (models.CoachingSession, error)
	StartActive(ctx context.Context, userID, title string) (models.CoachingSession, error)
	EndActive(ctx context.Context, userID string) (models.CoachingSession, error)
	Active(ctx context.Context, userID string) (models.CoachingSession, error)
}

type sessionService struct {
	repo      repository.SessionRepository
	progress  ProgressService
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewSessionService builds the session service. progress may be nil.
func NewSessionService(repo repository.SessionRepository, progress ProgressService, validate *validator.Validate, logger zerolog.Logger) SessionService {
	return &sessionService{
		repo:      repo,
		progress:  progress,
		validator: validate,
		logger:    logger.With().Str("component", "session_service").Logger(),
		now:       time.Now,
	}
}

func (s *sessionService) ListByUser(ctx context.Context, userID string) ([]models.CoachingSession, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *sessionService) Get(ctx context.Context, id string) (models.CoachingSession, error) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.CoachingSession{}, ErrSessionNotFound
		}
		return models.CoachingSession{}, err
	}
	return session, nil
}

func (s *sessionService) Create(ctx context.Context, payload dto.SessionCreateRequest) (models.CoachingSession, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.CoachingSession{}, err
	}

	session := models.CoachingSession{
		UserID: payload.UserID,
		Title:  strings.TrimSpace(payload.Title),
		Type:   payload.Type,
		Status: models.SessionStatusScheduled,
		Notes:  payload.Notes,
	}
	if session.Type == "" {
		session.Type = models.SessionTypeText
	}
	if payload.ScheduledAt != "" {
		scheduledAt, err := time.Parse(time.RFC3339, payload.ScheduledAt)
		if err != nil {
			return models.CoachingSession{}, fmt.Errorf("invalid scheduledAt: %w", err)
		}
		scheduledAt = scheduledAt.UTC()
		session.ScheduledAt = &scheduledAt
	}

	if err := s.repo.Create(ctx, &session); err != nil {
		return models.CoachingSession{}, err
	}
	s.invalidate(ctx, session.UserID)
	return session, nil
}

func (s *sessionService) Update(ctx context.Context, id string, payload dto.SessionUpdateRequest) (models.CoachingSession, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.CoachingSession{}, err
	}

	session, err := s.Get(ctx, id)
	if err != nil {
		return models.CoachingSession{}, err
	}

	notes := session.Notes
	if payload.Notes != nil {
		notes = *payload.Notes
	}

	switch {
	case payload.Status != nil && *payload.Status == models.SessionStatusCompleted:
		err = s.repo.Complete(ctx, id, payload.Score, notes)
	case payload.Status != nil:
		err = s.repo.UpdateStatus(ctx, id, *payload.Status)
	case payload.Score != nil || payload.Notes != nil:
		if session.Status != models.SessionStatusCompleted {
			return models.CoachingSession{}, ErrInvalidSessionUpdate
		}
		err = s.repo.Complete(ctx, id, payload.Score, notes)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.CoachingSession{}, ErrSessionNotFound
		}
		return models.CoachingSession{}, err
	}

	s.invalidate(ctx, session.UserID)
	return s.Get(ctx, id)
}

// StartActive opens a new in-progress text session unless one is already running.
func (s *sessionService) StartActive(ctx context.Context, userID, title string) (models.CoachingSession, error) {
	if _, err := s.repo.FindActive(ctx, userID); err == nil {
		return models.CoachingSession{}, ErrActiveSessionExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.CoachingSession{}, err
	}

	session := models.CoachingSession{
		UserID: userID,
		Title:  title,
		Type:   models.SessionTypeText,
		Status: models.SessionStatusScheduled,
	}
	if err := s.repo.Create(ctx, &session); err != nil {
		return models.CoachingSession{}, err
	}
	if err := s.repo.UpdateStatus(ctx, session.ID, models.SessionStatusInProgress); err != nil {
		return models.CoachingSession{}, err
	}

	s.invalidate(ctx, userID)
	return s.Get(ctx, session.ID)
}

// EndActive completes the user's running session.
func (s *sessionService) EndActive(ctx context.Context, userID string) (models.CoachingSession, error) {
	session, err := s.Active(ctx, userID)
	if err != nil {
		return models.CoachingSession{}, err
	}
	if err := s.repo.Complete(ctx, session.ID, nil, session.Notes); err != nil {
		return models.CoachingSession{}, err
	}

	s.invalidate(ctx, userID)
	return s.Get(ctx, session.ID)
}

func (s *sessionService) Active(ctx context.Context, userID string) (models.CoachingSession, error) {
	session, err := s.repo.FindActive(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.CoachingSession{}, ErrNoActiveSession
		}
		return models.CoachingSession{}, err
	}
	return session, nil
}

func (s *sessionService) invalidate(ctx context.Context, userID string) {
	if s.progress != nil {
		s.progress.Invalidate(ctx, userID)
	}
}
