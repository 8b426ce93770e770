package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/heycoach-api/internal/dto"
	"github.com/noah-isme/heycoach-api/internal/models"
	"github.com/noah-isme/heycoach-api/internal/repository"
)

const defaultProgressWindow = 30 * 24 * time.Hour

// ProgressService records progress metrics and builds the user dashboard.
type ProgressService interface {
	Metrics(ctx context.Context, userID string, query dto.ProgressQuery) (dto.ProgressMetricsResponse, error)
	Record(ctx context.Context, payload dto.RecordMetricRequest) (models.ProgressMetric, error)
	Dashboard(ctx context.Context, userID string) (dto.DashboardResponse, error)
	Invalidate(ctx context.Context, userID string)
}

type progressService struct {
	metrics     repository.ProgressMetricRepository
	sessions    repository.SessionRepository
	assignments repository.AssignmentRepository
	attempts    repository.PracticeAttemptRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	cachePrefix string
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewProgressService builds the progress aggregator. cache may be nil.
func NewProgressService(
	metrics repository.ProgressMetricRepository,
	sessions repository.SessionRepository,
	assignments repository.AssignmentRepository,
	attempts repository.PracticeAttemptRepository,
	cache *redis.Client,
	ttl time.Duration,
	channelBase string,
	validate *validator.Validate,
	logger zerolog.Logger,
) ProgressService {
	prefix := "dashboard:user:"
	if channelBase != "" {
		prefix = channelBase + ":" + prefix
	}
	return &progressService{
		metrics:     metrics,
		sessions:    sessions,
		assignments: assignments,
		attempts:    attempts,
		cache:       cache,
		cacheTTL:    ttl,
		cachePrefix: prefix,
		validator:   validate,
		logger:      logger.With().Str("component", "progress_service").Logger(),
		now:         time.Now,
	}
}

func (s *progressService) Metrics(ctx context.Context, userID string, query dto.ProgressQuery) (dto.ProgressMetricsResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.ProgressMetricsResponse{}, err
	}

	period := query.Period
	if period == "" {
		period = models.PeriodWeekly
	}

	end := s.now().UTC()
	if query.EndDate != "" {
		parsed, err := time.Parse(time.RFC3339, query.EndDate)
		if err != nil {
			return dto.ProgressMetricsResponse{}, err
		}
		end = parsed.UTC()
	}

	start := end.Add(-defaultProgressWindow)
	if query.StartDate != "" {
		parsed, err := time.Parse(time.RFC3339, query.StartDate)
		if err != nil {
			return dto.ProgressMetricsResponse{}, err
		}
		start = parsed.UTC()
	}

	items, err := s.metrics.ListByUserAndPeriod(ctx, userID, period, start, end)
	if err != nil {
		return dto.ProgressMetricsResponse{}, err
	}

	return dto.ProgressMetricsResponse{
		UserID:    userID,
		Period:    period,
		StartDate: start,
		EndDate:   end,
		Metrics:   items,
	}, nil
}

func (s *progressService) Record(ctx context.Context, payload dto.RecordMetricRequest) (models.ProgressMetric, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.ProgressMetric{}, err
	}

	start, end := models.PeriodBounds(payload.Period, s.now())
	metric := models.ProgressMetric{
		UserID:      payload.UserID,
		MetricType:  payload.MetricType,
		MetricValue: payload.MetricValue,
		Period:      payload.Period,
		PeriodStart: start,
		PeriodEnd:   end,
	}
	if len(payload.Metadata) > 0 {
		metric.Metadata = datatypes.JSONMap(payload.Metadata)
	}

	if err := s.metrics.Create(ctx, &metric); err != nil {
		return models.ProgressMetric{}, err
	}

	s.Invalidate(ctx, payload.UserID)
	return metric, nil
}

func (s *progressService) Dashboard(ctx context.Context, userID string) (dto.DashboardResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return dto.DashboardResponse{}, ErrUserNotFound
	}
	cacheKey := s.cachePrefix + userID

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.DashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Str("user_id", userID).Msg("dashboard cache hit")
				response.CacheHit = true
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	response, err := s.buildDashboard(ctx, userID)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func (s *progressService) Invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cachePrefix+userID).Err(); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to invalidate dashboard cache")
	}
}

func (s *progressService) buildDashboard(ctx context.Context, userID string) (dto.DashboardResponse, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return dto.DashboardResponse{}, fmt.Errorf("list sessions: %w", err)
	}
	assignments, err := s.assignments.ListByUser(ctx, userID)
	if err != nil {
		return dto.DashboardResponse{}, fmt.Errorf("list assignments: %w", err)
	}

	response := dto.DashboardResponse{
		UserID:         userID,
		TotalSessions:  len(sessions),
		PracticeScores: []float64{},
		GeneratedAt:    s.now().UTC(),
	}

	var sessionTotal float64
	var sessionScored int
	for _, session := range sessions {
		if session.Status == models.SessionStatusCompleted {
			response.CompletedSessions++
		}
		if session.Score != nil {
			sessionTotal += *session.Score
			sessionScored++
		}
	}
	if sessionScored > 0 {
		response.AverageSessionScore = sessionTotal / float64(sessionScored)
	}

	response.TotalAssignments = len(assignments)
	for _, assignment := range assignments {
		switch assignment.Status {
		case models.AssignmentStatusCompleted:
			response.CompletedAssignments++
		case models.AssignmentStatusOverdue:
			response.OverdueAssignments++
		}

		attempts, err := s.attempts.ListCompletedByAssignment(ctx, assignment.ID)
		if err != nil {
			return dto.DashboardResponse{}, fmt.Errorf("list attempts: %w", err)
		}
		for _, attempt := range attempts {
			if attempt.Score != nil {
				response.PracticeScores = append(response.PracticeScores, *attempt.Score)
			}
		}
	}

	if len(response.PracticeScores) > 0 {
		var total float64
		for _, score := range response.PracticeScores {
			total += score
		}
		response.AveragePracticeScore = total / float64(len(response.PracticeScores))
	}

	return response, nil
}
