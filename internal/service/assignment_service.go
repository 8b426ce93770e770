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

// AssignmentService exposes assignment domain use cases.
type AssignmentService interface {
	ListByUser(ctx context.Context, userID string) ([]models.Assignment, error)
	Get(ctx context.Context, id string) (models.Assignment, error)
	Create(ctx context.Context, payload dto.AssignmentCreateRequest) (models.Assignment, error)
	SweepOverdue(ctx context.Context) (dto.SweepResult, error)
}

// AssignmentOverdueEvent is emitted for each assignment flagged overdue.
type AssignmentOverdueEvent struct {
	AssignmentID string     `json:"assignmentId"`
	UserID       string     `json:"userId"`
	Title        string     `json:"title"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
}

type assignmentService struct {
	repo          repository.AssignmentRepository
	notifications NotificationService
	progress      ProgressService
	events        EventPublisher
	validator     *validator.Validate
	logger        zerolog.Logger
	now           func() time.Time
}

// NewAssignmentService builds a new assignment service. notifications, progress and events may be nil.
func NewAssignmentService(
	repo repository.AssignmentRepository,
	notifications NotificationService,
	progress ProgressService,
	events EventPublisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) AssignmentService {
	if events == nil {
		events = noopEventPublisher{}
	}
	return &assignmentService{
		repo:          repo,
		notifications: notifications,
		progress:      progress,
		events:        events,
		validator:     validate,
		logger:        logger.With().Str("component", "assignment_service").Logger(),
		now:           time.Now,
	}
}

func (s *assignmentService) ListByUser(ctx context.Context, userID string) ([]models.Assignment, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *assignmentService) Get(ctx context.Context, id string) (models.Assignment, error) {
	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}
	return assignment, nil
}

func (s *assignmentService) Create(ctx context.Context, payload dto.AssignmentCreateRequest) (models.Assignment, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Assignment{}, err
	}

	assignment := models.Assignment{
		UserID:      payload.UserID,
		Title:       strings.TrimSpace(payload.Title),
		Description: strings.TrimSpace(payload.Description),
		Scenario:    strings.TrimSpace(payload.Scenario),
		Difficulty:  payload.Difficulty,
		Status:      models.AssignmentStatusPending,
	}
	if assignment.Difficulty == "" {
		assignment.Difficulty = models.DifficultyIntermediate
	}
	if payload.DueDate != "" {
		due, err := time.Parse(time.RFC3339, payload.DueDate)
		if err != nil {
			return models.Assignment{}, fmt.Errorf("invalid dueDate: %w", err)
		}
		due = due.UTC()
		assignment.DueDate = &due
	}

	if err := s.repo.Create(ctx, &assignment); err != nil {
		return models.Assignment{}, err
	}

	s.logger.Info().Str("assignment_id", assignment.ID).Str("user_id", assignment.UserID).Msg("assignment created")
	if s.progress != nil {
		s.progress.Invalidate(ctx, assignment.UserID)
	}
	return assignment, nil
}

// SweepOverdue flags open assignments whose due date has passed and notifies their owners.
func (s *assignmentService) SweepOverdue(ctx context.Context) (dto.SweepResult, error) {
	flagged, err := s.repo.MarkOverdue(ctx, s.now().UTC())
	if err != nil {
		return dto.SweepResult{}, fmt.Errorf("mark overdue: %w", err)
	}

	for _, assignment := range flagged {
		if s.notifications != nil {
			if _, err := s.notifications.Publish(ctx, dto.NotificationCreateRequest{
				UserID:   assignment.UserID,
				Type:     models.NotificationTypeAssignmentDue,
				Title:    "Assignment overdue",
				Message:  fmt.Sprintf("Your %q assignment is past its due date.", assignment.Title),
				Metadata: map[string]interface{}{"assignmentId": assignment.ID},
			}); err != nil {
				s.logger.Warn().Err(err).Str("assignment_id", assignment.ID).Msg("failed to notify overdue assignment")
			}
		}

		if err := s.events.Publish(ctx, EventAssignmentOverdue, AssignmentOverdueEvent{
			AssignmentID: assignment.ID,
			UserID:       assignment.UserID,
			Title:        assignment.Title,
			DueDate:      assignment.DueDate,
		}); err != nil {
			s.logger.Warn().Err(err).Str("assignment_id", assignment.ID).Msg("failed to publish overdue event")
		}

		if s.progress != nil {
			s.progress.Invalidate(ctx, assignment.UserID)
		}
	}

	if len(flagged) > 0 {
		s.logger.Info().Int("overdue", len(flagged)).Msg("overdue assignments flagged")
	}
	return dto.SweepResult{Overdue: len(flagged)}, nil
}
