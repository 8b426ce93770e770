package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/heycoach-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.CoachingSession{},
		&models.Assignment{},
		&models.Message{},
		&models.PracticeAttempt{},
		&models.VoiceCall{},
		&models.ProgressMetric{},
		&models.Notification{},
	))
	return db
}

func TestUserRepositoryFindOrCreate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	created, isNew, err := repo.FindOrCreate(ctx, "+15551234567", "Jordan")
	require.NoError(t, err)
	require.True(t, isNew)
	require.NotEmpty(t, created.ID)

	again, isNew, err := repo.FindOrCreate(ctx, "+15551234567", "Someone Else")
	require.NoError(t, err)
	require.False(t, isNew)
	require.Equal(t, created.ID, again.ID)
	require.Equal(t, "Jordan", again.Name)

	_, err = repo.FindByPhone(ctx, "+10000000000")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSessionRepositoryLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()

	session := models.CoachingSession{UserID: "user-1", Title: "Leadership", Type: models.SessionTypeText, Status: models.SessionStatusScheduled}
	require.NoError(t, repo.Create(ctx, &session))

	_, err := repo.FindActive(ctx, "user-1")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.UpdateStatus(ctx, session.ID, models.SessionStatusInProgress))
	active, err := repo.FindActive(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, session.ID, active.ID)
	require.NotNil(t, active.StartedAt)

	score := 92.0
	require.NoError(t, repo.Complete(ctx, session.ID, &score, "Strong session"))
	stored, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt)
	require.InDelta(t, 92.0, *stored.Score, 0.001)
	require.Equal(t, "Strong session", stored.Notes)

	require.ErrorIs(t, repo.UpdateStatus(ctx, "missing", models.SessionStatusCancelled), gorm.ErrRecordNotFound)
}

func TestAssignmentRepositoryMarkOverdue(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	late := models.Assignment{UserID: "u", Title: "Late", Description: "d", Scenario: "s", DueDate: &past, Status: models.AssignmentStatusPending}
	onTime := models.Assignment{UserID: "u", Title: "On time", Description: "d", Scenario: "s", DueDate: &future, Status: models.AssignmentStatusPending}
	done := models.Assignment{UserID: "u", Title: "Done", Description: "d", Scenario: "s", DueDate: &past, Status: models.AssignmentStatusCompleted}
	for _, a := range []*models.Assignment{&late, &onTime, &done} {
		require.NoError(t, repo.Create(ctx, a))
	}

	overdue, err := repo.MarkOverdue(ctx, now)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, late.ID, overdue[0].ID)
	require.Equal(t, models.AssignmentStatusOverdue, overdue[0].Status)

	stored, err := repo.GetByID(ctx, late.ID)
	require.NoError(t, err)
	require.Equal(t, models.AssignmentStatusOverdue, stored.Status)

	open, err := repo.ListOpenByUser(ctx, "u")
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, onTime.ID, open[0].ID)
}

func TestPracticeAttemptRepositoryRevisionGuard(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPracticeAttemptRepository(db)
	ctx := context.Background()

	attempt := models.PracticeAttempt{AssignmentID: "a-1", UserID: "u-1", Status: models.AttemptStatusInProgress}
	require.NoError(t, repo.Create(ctx, &attempt))

	conversation := attempt.Conversation.Append(
		models.NewCoachTurn("Hello there", models.Evaluation{Score: 70, Feedback: "ok"}),
		models.NewClientTurn("I am not sure about this"),
	)
	require.NoError(t, repo.UpdateConversation(ctx, attempt.ID, conversation, 0))

	err := repo.UpdateConversation(ctx, attempt.ID, conversation.Append(models.NewClientTurn("late")), 0)
	require.ErrorIs(t, err, ErrStaleRevision)

	stored, err := repo.GetByID(ctx, attempt.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stored.Revision)
	require.Equal(t, 2, stored.Conversation.Len())
	require.Equal(t, "I am not sure about this", stored.Conversation.LastText())
	require.NotNil(t, stored.Conversation.Turns[0].Evaluation)
	require.InDelta(t, 70, stored.Conversation.Turns[0].Evaluation.Score, 0.001)
}

func TestPracticeAttemptRepositoryCompleteOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPracticeAttemptRepository(db)
	ctx := context.Background()

	attempt := models.PracticeAttempt{AssignmentID: "a-1", UserID: "u-1", Status: models.AttemptStatusInProgress}
	require.NoError(t, repo.Create(ctx, &attempt))

	completion := AttemptCompletion{
		Score:       88,
		Feedback:    "Good job",
		Metrics:     models.PracticeMetrics{TotalExchanges: 3, AverageScore: 88},
		CompletedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Complete(ctx, attempt.ID, completion))
	require.ErrorIs(t, repo.Complete(ctx, attempt.ID, completion), ErrNotInProgress)

	stored, err := repo.GetByID(ctx, attempt.ID)
	require.NoError(t, err)
	require.Equal(t, models.AttemptStatusCompleted, stored.Status)
	metrics, ok := stored.MetricsSummary()
	require.True(t, ok)
	require.Equal(t, 3, metrics.TotalExchanges)

	completed, err := repo.ListCompletedByAssignment(ctx, "a-1")
	require.NoError(t, err)
	require.Len(t, completed, 1)

	err = repo.UpdateConversation(ctx, attempt.ID, models.Conversation{}, stored.Revision)
	require.ErrorIs(t, err, ErrStaleRevision, "completed attempts reject conversation writes")
}

func TestVoiceCallRepositoryByCallSID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVoiceCallRepository(db)
	ctx := context.Background()

	call := models.VoiceCall{SessionID: "s-1", UserID: "u-1", Status: models.VoiceCallStatusInitiated}
	require.NoError(t, repo.Create(ctx, &call))
	require.NoError(t, repo.AttachCallSID(ctx, call.ID, "CA123"))

	duration := 180
	require.NoError(t, repo.Complete(ctx, call.ID, VoiceCallResult{RecordingURL: "https://example.com/r.mp3", Transcription: "hello", Duration: &duration}))

	stored, err := repo.GetByCallSID(ctx, "CA123")
	require.NoError(t, err)
	require.Equal(t, call.ID, stored.ID)
	require.True(t, stored.IsTerminal())
	require.Equal(t, 180, *stored.Duration)
}

func TestNotificationRepositoryMarkRead(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	n := models.Notification{UserID: "u-1", Type: models.NotificationTypeGeneral, Title: "Hi", Message: "Welcome"}
	require.NoError(t, repo.Create(ctx, &n))

	updated, err := repo.MarkRead(ctx, n.ID)
	require.NoError(t, err)
	require.True(t, updated.IsRead)

	items, err := repo.ListByUser(ctx, "u-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.True(t, items[0].IsRead)

	_, err = repo.MarkRead(ctx, "missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProgressMetricRepositoryWindow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProgressMetricRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		start := base.AddDate(0, 0, i*7)
		require.NoError(t, repo.Create(ctx, &models.ProgressMetric{
			UserID: "u-1", MetricType: models.MetricTypePracticeScore, MetricValue: float64(70 + i),
			Period: models.PeriodWeekly, PeriodStart: start, PeriodEnd: start.AddDate(0, 0, 7),
		}))
	}

	metrics, err := repo.ListByUserAndPeriod(ctx, "u-1", models.PeriodWeekly, base.AddDate(0, 0, 1), base.AddDate(0, 0, 30))
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	require.InDelta(t, 71, metrics[0].MetricValue, 0.001)
}
