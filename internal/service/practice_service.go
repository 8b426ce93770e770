package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/heycoach-api/internal/dto"
	"github.com/noah-isme/heycoach-api/internal/models"
	"github.com/noah-isme/heycoach-api/internal/observability"
	"github.com/noah-isme/heycoach-api/internal/repository"
	"github.com/noah-isme/heycoach-api/pkg/ai"
)

// PracticeService runs roleplay practice attempts against the simulated client.
type PracticeService interface {
	Start(ctx context.Context, payload dto.StartPracticeRequest) (dto.PracticeAttemptResponse, error)
	Advance(ctx context.Context, attemptID string, payload dto.PracticeMessageRequest) (dto.PracticeAdvanceResponse, error)
	Complete(ctx context.Context, attemptID string, payload dto.CompletePracticeRequest) error
	ListByAssignment(ctx context.Context, assignmentID string) ([]dto.PracticeAttemptResponse, error)
	Summary(ctx context.Context, assignmentID string) (dto.PracticeSummaryResponse, error)
}

// PracticeDeps groups the collaborators of the practice service.
type PracticeDeps struct {
	Attempts      repository.PracticeAttemptRepository
	Assignments   repository.AssignmentRepository
	Coach         CoachAI
	Locker        AttemptLocker
	Events        EventPublisher
	Notifications NotificationService
	Progress      ProgressService
	Validator     *validator.Validate
	Logger        zerolog.Logger
}

type practiceService struct {
	attempts      repository.PracticeAttemptRepository
	assignments   repository.AssignmentRepository
	coach         CoachAI
	locker        AttemptLocker
	events        EventPublisher
	notifications NotificationService
	progress      ProgressService
	validator     *validator.Validate
	logger        zerolog.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

// NewPracticeService builds the practice orchestrator. Coach may be nil when no AI
// provider is configured; turns and summaries then fail with ErrAIUnavailable.
func NewPracticeService(deps PracticeDeps) PracticeService {
	locker := deps.Locker
	if locker == nil {
		locker = NewLocalLocker()
	}
	events := deps.Events
	if events == nil {
		events = noopEventPublisher{}
	}
	validate := deps.Validator
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}

	return &practiceService{
		attempts:      deps.Attempts,
		assignments:   deps.Assignments,
		coach:         deps.Coach,
		locker:        locker,
		events:        events,
		notifications: deps.Notifications,
		progress:      deps.Progress,
		validator:     validate,
		logger:        deps.Logger.With().Str("component", "practice_service").Logger(),
		tracer:        observability.Tracer("practice"),
		now:           time.Now,
	}
}

func (s *practiceService) Start(ctx context.Context, payload dto.StartPracticeRequest) (dto.PracticeAttemptResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PracticeAttemptResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, payload.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PracticeAttemptResponse{}, ErrAssignmentNotFound
		}
		return dto.PracticeAttemptResponse{}, err
	}
	if assignment.UserID != payload.UserID {
		s.logger.Warn().
			Str("assignment_id", assignment.ID).
			Str("owner_id", assignment.UserID).
			Str("user_id", payload.UserID).
			Msg("practice started by a user other than the assignment owner")
	}

	attempt := models.PracticeAttempt{
		AssignmentID: assignment.ID,
		UserID:       payload.UserID,
		StartedAt:    s.now().UTC(),
		Status:       models.AttemptStatusInProgress,
	}
	if err := s.attempts.Create(ctx, &attempt); err != nil {
		return dto.PracticeAttemptResponse{}, fmt.Errorf("create attempt: %w", err)
	}

	if assignment.Status == models.AssignmentStatusPending {
		if err := s.assignments.UpdateStatus(ctx, assignment.ID, models.AssignmentStatusInProgress); err != nil {
			s.logger.Warn().Err(err).Str("assignment_id", assignment.ID).Msg("failed to mark assignment in progress")
		}
	}

	s.logger.Info().Str("attempt_id", attempt.ID).Str("assignment_id", assignment.ID).Msg("practice attempt started")
	return dto.NewPracticeAttemptResponse(attempt), nil
}

// Advance accepts one coach turn. The simulated reply and the evaluation are produced
// before anything is written, so a generator failure leaves the attempt untouched.
func (s *practiceService) Advance(ctx context.Context, attemptID string, payload dto.PracticeMessageRequest) (dto.PracticeAdvanceResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PracticeAdvanceResponse{}, err
	}
	if s.coach == nil {
		return dto.PracticeAdvanceResponse{}, ErrAIUnavailable
	}

	ctx, span := s.tracer.Start(ctx, "practice.advance", trace.WithAttributes(
		attribute.String("practice.attempt_id", attemptID),
	))
	defer span.End()

	unlock, err := s.locker.Lock(ctx, "practice:attempt:"+attemptID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			observability.PracticeTurns().WithLabelValues("conflict").Inc()
			return dto.PracticeAdvanceResponse{}, fmt.Errorf("%w: %v", ErrConcurrentAdvance, err)
		}
		return dto.PracticeAdvanceResponse{}, fmt.Errorf("acquire attempt lock: %w", err)
	}
	defer unlock()

	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PracticeAdvanceResponse{}, ErrAttemptNotFound
		}
		return dto.PracticeAdvanceResponse{}, err
	}
	if !attempt.IsInProgress() {
		return dto.PracticeAdvanceResponse{}, ErrAttemptNotInProgress
	}

	scenario, err := s.resolveScenario(ctx, attempt, payload.Assignment)
	if err != nil {
		return dto.PracticeAdvanceResponse{}, err
	}

	coachText := strings.TrimSpace(payload.UserMessage)
	previousClientText := attempt.Conversation.LastText()
	history := append(conversationMessages(attempt.Conversation), ai.Message{Role: ai.RoleAssistant, Content: coachText})

	clientReply, err := s.coach.SimulateClient(ctx, scenario, history)
	if err != nil {
		return dto.PracticeAdvanceResponse{}, s.turnFailed(span, err)
	}

	outcome, err := s.coach.Evaluate(ctx, ai.EvaluationInput{
		CoachText:     coachText,
		ClientMessage: previousClientText,
		Scenario:      scenario,
	})
	if err != nil {
		return dto.PracticeAdvanceResponse{}, s.turnFailed(span, err)
	}

	evaluation := models.Evaluation(outcome.Evaluation)
	updated := attempt.Conversation.Append(
		models.NewCoachTurn(coachText, evaluation),
		models.NewClientTurn(clientReply),
	)

	if err := s.attempts.UpdateConversation(ctx, attempt.ID, updated, attempt.Revision); err != nil {
		if errors.Is(err, repository.ErrStaleRevision) {
			observability.PracticeTurns().WithLabelValues("conflict").Inc()
			return dto.PracticeAdvanceResponse{}, ErrConcurrentAdvance
		}
		span.RecordError(err)
		return dto.PracticeAdvanceResponse{}, fmt.Errorf("persist conversation: %w", err)
	}

	outcomeLabel := "scored"
	if outcome.Fallback {
		outcomeLabel = "fallback"
	}
	observability.PracticeTurns().WithLabelValues(outcomeLabel).Inc()
	observability.PracticeScores().Observe(evaluation.Score)
	span.SetAttributes(
		attribute.Int("practice.turns", updated.Len()),
		attribute.Float64("practice.score", evaluation.Score),
		attribute.Bool("practice.fallback", outcome.Fallback),
	)

	return dto.PracticeAdvanceResponse{
		ClientResponse:      clientReply,
		Evaluation:          *updated.Turns[updated.Len()-2].Evaluation,
		ConversationHistory: dto.NewPracticeTurnResponses(updated),
	}, nil
}

func (s *practiceService) Complete(ctx context.Context, attemptID string, payload dto.CompletePracticeRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	ctx, span := s.tracer.Start(ctx, "practice.complete", trace.WithAttributes(
		attribute.String("practice.attempt_id", attemptID),
	))
	defer span.End()

	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAttemptNotFound
		}
		return err
	}

	switch attempt.Status {
	case models.AttemptStatusInProgress:
	case models.AttemptStatusCompleted:
		observability.PracticeCompletions().WithLabelValues("duplicate").Inc()
		return ErrAttemptAlreadyCompleted
	default:
		return ErrAttemptNotInProgress
	}

	evaluations := attempt.Conversation.Evaluations()
	if len(evaluations) == 0 {
		observability.PracticeCompletions().WithLabelValues("unscored").Inc()
		return ErrNoScoredTurns
	}

	summary := SummarizeScores(evaluations)
	completion := repository.AttemptCompletion{
		Score:       summary.AverageScore,
		Feedback:    strings.TrimSpace(payload.Feedback),
		Metrics:     summary,
		CompletedAt: s.now().UTC(),
	}
	if payload.Score != nil {
		completion.Score = ai.ClampScore(*payload.Score)
	}
	if payload.Metrics != nil {
		completion.Metrics = *payload.Metrics
	}

	err = s.attempts.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.attempts.WithTx(tx).Complete(ctx, attempt.ID, completion); err != nil {
			return err
		}
		return s.assignments.WithTx(tx).Complete(ctx, attempt.AssignmentID, completion.Score, completion.Feedback, completion.CompletedAt)
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotInProgress):
			observability.PracticeCompletions().WithLabelValues("duplicate").Inc()
			return ErrAttemptAlreadyCompleted
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ErrAssignmentNotFound
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("complete attempt: %w", err)
		}
	}

	observability.PracticeCompletions().WithLabelValues("completed").Inc()
	s.logger.Info().
		Str("attempt_id", attempt.ID).
		Str("assignment_id", attempt.AssignmentID).
		Float64("score", completion.Score).
		Int("exchanges", summary.TotalExchanges).
		Msg("practice attempt completed")

	s.afterComplete(context.WithoutCancel(ctx), attempt, completion)
	return nil
}

func (s *practiceService) ListByAssignment(ctx context.Context, assignmentID string) ([]dto.PracticeAttemptResponse, error) {
	attempts, err := s.attempts.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	return dto.NewPracticeAttemptResponseSlice(attempts), nil
}

func (s *practiceService) Summary(ctx context.Context, assignmentID string) (dto.PracticeSummaryResponse, error) {
	if s.coach == nil {
		return dto.PracticeSummaryResponse{}, ErrAIUnavailable
	}

	attempts, err := s.attempts.ListCompletedByAssignment(ctx, assignmentID)
	if err != nil {
		return dto.PracticeSummaryResponse{}, err
	}
	if len(attempts) == 0 {
		return dto.PracticeSummaryResponse{}, ErrNoCompletedAttempts
	}

	digests := make([]ai.AttemptDigest, 0, len(attempts))
	var total float64
	for _, attempt := range attempts {
		digest := ai.AttemptDigest{Feedback: attempt.Feedback}
		if attempt.Score != nil {
			digest.Score = *attempt.Score
		}
		total += digest.Score
		digests = append(digests, digest)
	}

	text, err := s.coach.Summarize(ctx, digests)
	if err != nil {
		return dto.PracticeSummaryResponse{}, wrapAIError(err)
	}

	return dto.PracticeSummaryResponse{
		AssignmentID: assignmentID,
		Attempts:     len(attempts),
		AverageScore: total / float64(len(attempts)),
		Summary:      text,
	}, nil
}

func (s *practiceService) resolveScenario(ctx context.Context, attempt models.PracticeAttempt, override *dto.AssignmentContext) (string, error) {
	if override != nil && strings.TrimSpace(override.Scenario) != "" {
		return strings.TrimSpace(override.Scenario), nil
	}

	assignment, err := s.assignments.GetByID(ctx, attempt.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrAssignmentNotFound
		}
		return "", err
	}
	return assignment.Scenario, nil
}

func (s *practiceService) turnFailed(span trace.Span, err error) error {
	observability.PracticeTurns().WithLabelValues("failed").Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.Error().Err(err).Msg("practice turn generation failed")
	return wrapAIError(err)
}

// afterComplete runs the best-effort side effects of a completion. Failures are logged.
func (s *practiceService) afterComplete(ctx context.Context, attempt models.PracticeAttempt, completion repository.AttemptCompletion) {
	if s.progress != nil {
		if _, err := s.progress.Record(ctx, dto.RecordMetricRequest{
			UserID:      attempt.UserID,
			MetricType:  models.MetricTypePracticeScore,
			MetricValue: completion.Score,
			Period:      models.PeriodDaily,
			Metadata: map[string]interface{}{
				"attemptId":    attempt.ID,
				"assignmentId": attempt.AssignmentID,
			},
		}); err != nil {
			s.logger.Warn().Err(err).Str("attempt_id", attempt.ID).Msg("failed to record practice metric")
		}
	}

	if s.notifications != nil {
		if _, err := s.notifications.Publish(ctx, dto.NotificationCreateRequest{
			UserID:  attempt.UserID,
			Type:    models.NotificationTypeMilestone,
			Title:   "Practice completed",
			Message: fmt.Sprintf("You completed a practice session with a score of %.0f.", completion.Score),
			Metadata: map[string]interface{}{
				"attemptId":    attempt.ID,
				"assignmentId": attempt.AssignmentID,
			},
		}); err != nil {
			s.logger.Warn().Err(err).Str("attempt_id", attempt.ID).Msg("failed to publish completion notification")
		}
	}

	event := PracticeCompletedEvent{
		AttemptID:    attempt.ID,
		AssignmentID: attempt.AssignmentID,
		UserID:       attempt.UserID,
		Score:        completion.Score,
		Exchanges:    completion.Metrics.TotalExchanges,
		CompletedAt:  completion.CompletedAt,
	}
	if err := s.events.Publish(ctx, EventPracticeCompleted, event); err != nil {
		s.logger.Warn().Err(err).Str("attempt_id", attempt.ID).Msg("failed to publish practice completed event")
	}

	if s.progress != nil {
		s.progress.Invalidate(ctx, attempt.UserID)
	}
}

// SummarizeScores aggregates the scored turns of an attempt. An empty input yields all zeros.
func SummarizeScores(evaluations []models.Evaluation) models.PracticeMetrics {
	if len(evaluations) == 0 {
		return models.PracticeMetrics{}
	}

	summary := models.PracticeMetrics{
		TotalExchanges: len(evaluations),
		HighestScore:   evaluations[0].Score,
		LowestScore:    evaluations[0].Score,
	}
	var total float64
	for _, evaluation := range evaluations {
		total += evaluation.Score
		if evaluation.Score > summary.HighestScore {
			summary.HighestScore = evaluation.Score
		}
		if evaluation.Score < summary.LowestScore {
			summary.LowestScore = evaluation.Score
		}
	}
	summary.AverageScore = total / float64(len(evaluations))
	return summary
}

func conversationMessages(conversation models.Conversation) []ai.Message {
	messages := make([]ai.Message, 0, conversation.Len()+1)
	for _, turn := range conversation.Turns {
		messages = append(messages, ai.Message{Role: ai.Role(turn.Role()), Content: turn.Text})
	}
	return messages
}
