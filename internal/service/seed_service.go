package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/heycoach-api/internal/dto"
	"github.com/noah-isme/heycoach-api/internal/models"
	"github.com/noah-isme/heycoach-api/internal/repository"
)

// DemoUserID identifies the seeded demo account.
const DemoUserID = "demo-user-123"

// SeedService loads the demo dataset.
type SeedService interface {
	// Seed is the token-guarded entry point used over HTTP.
	Seed(ctx context.Context, token string) (dto.SeedResult, error)
	// SeedDemo writes the dataset unconditionally; used by the operator CLI.
	SeedDemo(ctx context.Context) (dto.SeedResult, error)
}

type seedService struct {
	repo    repository.SeedRepository
	enabled bool
	token   string
	logger  zerolog.Logger
	now     func() time.Time
}

// NewSeedService constructs a seeding service.
func NewSeedService(repo repository.SeedRepository, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		repo:    repo,
		enabled: enabled,
		token:   token,
		logger:  logger.With().Str("component", "seed_service").Logger(),
		now:     time.Now,
	}
}

func (s *seedService) Seed(ctx context.Context, token string) (dto.SeedResult, error) {
	if !s.enabled {
		return dto.SeedResult{}, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return dto.SeedResult{}, ErrSeedUnauthorized
	}
	return s.SeedDemo(ctx)
}

func (s *seedService) SeedDemo(ctx context.Context) (dto.SeedResult, error) {
	data := demoDataset(s.now().UTC())
	result := dto.SeedResult{UserID: DemoUserID}

	err := s.repo.Transaction(ctx, func(repo repository.SeedRepository) error {
		if _, err := repo.InsertMissing(ctx, &data.users); err != nil {
			return err
		}
		sessions, err := repo.InsertMissing(ctx, &data.sessions)
		if err != nil {
			return err
		}
		assignments, err := repo.InsertMissing(ctx, &data.assignments)
		if err != nil {
			return err
		}
		notifications, err := repo.InsertMissing(ctx, &data.notifications)
		if err != nil {
			return err
		}
		metrics, err := repo.InsertMissing(ctx, &data.metrics)
		if err != nil {
			return err
		}

		result.Sessions = int(sessions)
		result.Assignments = int(assignments)
		result.Notifications = int(notifications)
		result.Metrics = int(metrics)
		return nil
	})
	if err != nil {
		return dto.SeedResult{}, err
	}

	s.logger.Info().
		Int("sessions", result.Sessions).
		Int("assignments", result.Assignments).
		Int("notifications", result.Notifications).
		Int("metrics", result.Metrics).
		Msg("demo data seeded")
	return result, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}

type demoData struct {
	users         []models.User
	sessions      []models.CoachingSession
	assignments   []models.Assignment
	notifications []models.Notification
	metrics       []models.ProgressMetric
}

func demoDataset(now time.Time) demoData {
	day := 24 * time.Hour
	dayAgo := now.Add(-day)
	weekAgo := now.Add(-7 * day)
	tomorrow := now.Add(day)

	weekAgoEnd := weekAgo.Add(time.Hour)
	dayAgoEnd := dayAgo.Add(45 * time.Minute)
	dueSoon := now.Add(3 * day)
	dueLater := now.Add(5 * day)
	duePast := weekAgo.Add(day)

	return demoData{
		users: []models.User{{ID: DemoUserID, PhoneNumber: "+1234567890", Name: "Demo User"}},
		sessions: []models.CoachingSession{
			{
				ID: "session-1", UserID: DemoUserID, Title: "Leadership Development Session",
				Type: models.SessionTypeText, Status: models.SessionStatusCompleted,
				ScheduledAt: &weekAgo, StartedAt: &weekAgo, CompletedAt: &weekAgoEnd,
				Duration: intPtr(3600), Score: floatPtr(85), Notes: "Great progress on delegation skills",
				CreatedAt: weekAgo, UpdatedAt: weekAgoEnd,
			},
			{
				ID: "session-2", UserID: DemoUserID, Title: "Communication Skills Workshop",
				Type: models.SessionTypeVoice, Status: models.SessionStatusCompleted,
				ScheduledAt: &dayAgo, StartedAt: &dayAgo, CompletedAt: &dayAgoEnd,
				Duration: intPtr(2700), Score: floatPtr(78), Notes: "Worked on active listening techniques",
				CreatedAt: dayAgo, UpdatedAt: dayAgoEnd,
			},
			{
				ID: "session-3", UserID: DemoUserID, Title: "Goal Setting Session",
				Type: models.SessionTypeText, Status: models.SessionStatusScheduled,
				ScheduledAt: &tomorrow, CreatedAt: now, UpdatedAt: now,
			},
		},
		assignments: []models.Assignment{
			{
				ID: "assignment-1", UserID: DemoUserID, Title: "Difficult Conversation Practice",
				Description: "Practice having a challenging conversation with an underperforming team member",
				Scenario: "You need to address performance issues with a team member who has been missing deadlines. " +
					"They are defensive and feel the workload is unfair. Practice delivering constructive feedback " +
					"while maintaining empathy and professionalism.",
				Difficulty: models.DifficultyIntermediate, Status: models.AssignmentStatusPending,
				DueDate: &dueSoon, CreatedAt: now, UpdatedAt: now,
			},
			{
				ID: "assignment-2", UserID: DemoUserID, Title: "Conflict Resolution Scenario",
				Description: "Mediate a conflict between two team members with different work styles",
				Scenario: "Two senior team members are in conflict. One prefers detailed planning while the other " +
					"favors quick iteration. Their disagreements are affecting team morale. You need to facilitate " +
					"a resolution that respects both perspectives.",
				Difficulty: models.DifficultyAdvanced, Status: models.AssignmentStatusInProgress,
				DueDate: &dueLater, CreatedAt: weekAgo, UpdatedAt: dayAgo,
			},
			{
				ID: "assignment-3", UserID: DemoUserID, Title: "Career Development Coaching",
				Description: "Coach an ambitious employee who wants a promotion",
				Scenario: "A high-performing employee wants to be promoted to a leadership role but lacks some key " +
					"skills. They are impatient and feel they deserve the promotion now. Help them create a " +
					"realistic development plan.",
				Difficulty: models.DifficultyBeginner, Status: models.AssignmentStatusCompleted,
				CompletedAt: &weekAgo, Score: floatPtr(88),
				Feedback: "Excellent empathy and practical action planning. Great job maintaining positive energy " +
					"while setting realistic expectations.",
				DueDate: &duePast, CreatedAt: weekAgo.Add(-3 * day), UpdatedAt: weekAgo,
			},
		},
		notifications: []models.Notification{
			{
				ID: "notif-1", UserID: DemoUserID, Type: models.NotificationTypeAssignmentDue,
				Title:     "Assignment Due Soon",
				Message:   `Your "Difficult Conversation Practice" assignment is due in 3 days`,
				CreatedAt: now,
			},
			{
				ID: "notif-2", UserID: DemoUserID, Type: models.NotificationTypeMilestone,
				Title:     "Milestone Achieved!",
				Message:   "Congratulations! You've completed your first assignment with a score of 88/100",
				CreatedAt: weekAgo,
			},
		},
		metrics: demoMetrics(now),
	}
}

func demoMetrics(now time.Time) []models.ProgressMetric {
	scores := []float64{72, 78, 81, 85}
	out := make([]models.ProgressMetric, 0, len(scores))
	for i, score := range scores {
		weeksAgo := len(scores) - 1 - i
		start, end := models.PeriodBounds(models.PeriodWeekly, now.AddDate(0, 0, -7*weeksAgo))
		out = append(out, models.ProgressMetric{
			ID:          fmt.Sprintf("metric-%d", i+1),
			UserID:      DemoUserID,
			MetricType:  models.MetricTypePracticeScore,
			MetricValue: score,
			Period:      models.PeriodWeekly,
			PeriodStart: start,
			PeriodEnd:   end,
		})
	}
	return out
}

func intPtr(value int) *int {
	return &value
}

func floatPtr(value float64) *float64 {
	return &value
}
