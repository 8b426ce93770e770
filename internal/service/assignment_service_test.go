package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/heycoach-api/internal/dto"
	"github.com/noah-isme/heycoach-api/internal/models"
)

func TestAssignmentServiceCreateAndGet(t *testing.T) {
	repos := newRepositorySet(setupServiceDB(t))
	svc := NewAssignmentService(repos.assignments, nil, nil, nil, testValidator(), testLogger())
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.AssignmentCreateRequest{
		UserID:      "u1",
		Title:       "  Giving feedback  ",
		Description: "Deliver feedback to a peer",
		Scenario:    "A peer keeps interrupting in meetings.",
		DueDate:     "2030-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	require.Equal(t, "Giving feedback", created.Title)
	require.Equal(t, models.DifficultyIntermediate, created.Difficulty)
	require.Equal(t, models.AssignmentStatusPending, created.Status)
	require.NotNil(t, created.DueDate)

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, fetched.ID)

	_, err = svc.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrAssignmentNotFound)

	_, err = svc.Create(ctx, dto.AssignmentCreateRequest{UserID: "u1", Title: "x"})
	require.Error(t, err)

	list, err := svc.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestAssignmentServiceSweepOverdue(t *testing.T) {
	repos := newRepositorySet(setupServiceDB(t))
	notifications := NewNotificationService(repos.notifications, nil, "test", nil, testValidator(), testLogger())
	events := &recordingEvents{}
	svc := NewAssignmentService(repos.assignments, notifications, nil, events, testValidator(), testLogger())
	ctx := context.Background()

	past := time.Now().Add(-time.Hour).UTC()
	future := time.Now().Add(time.Hour).UTC()
	late := models.Assignment{UserID: "u3", Title: "Late one", Description: "d", Scenario: "s", Status: models.AssignmentStatusInProgress, DueDate: &past}
	onTime := models.Assignment{UserID: "u3", Title: "On time", Description: "d", Scenario: "s", Status: models.AssignmentStatusPending, DueDate: &future}
	done := models.Assignment{UserID: "u3", Title: "Done", Description: "d", Scenario: "s", Status: models.AssignmentStatusCompleted, DueDate: &past}
	for _, assignment := range []*models.Assignment{&late, &onTime, &done} {
		require.NoError(t, repos.db.Create(assignment).Error)
	}

	result, err := svc.SweepOverdue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.Overdue)

	fetched, err := svc.Get(ctx, late.ID)
	require.NoError(t, err)
	require.Equal(t, models.AssignmentStatusOverdue, fetched.Status)

	list, err := notifications.List(ctx, "u3", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, models.NotificationTypeAssignmentDue, list[0].Type)
	require.Contains(t, list[0].Message, `"Late one"`)

	require.Equal(t, []string{EventAssignmentOverdue}, events.subjects)

	again, err := svc.SweepOverdue(ctx)
	require.NoError(t, err)
	require.Zero(t, again.Overdue)
}
