package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/heycoach-api/internal/dto"
	"github.com/noah-isme/heycoach-api/internal/models"
)

func TestSessionServiceCreateAndUpdate(t *testing.T) {
	repos := newRepositorySet(setupServiceDB(t))
	svc := NewSessionService(repos.sessions, nil, testValidator(), testLogger())
	ctx := context.Background()

	session, err := svc.Create(ctx, dto.SessionCreateRequest{
		UserID:      "u1",
		Title:       "Quarterly goals",
		ScheduledAt: "2024-07-01T09:00:00Z",
	})
	require.NoError(t, err)
	require.Equal(t, models.SessionTypeText, session.Type)
	require.Equal(t, models.SessionStatusScheduled, session.Status)
	require.NotNil(t, session.ScheduledAt)

	_, err = svc.Update(ctx, session.ID, dto.SessionUpdateRequest{Notes: stringPtr("early notes")})
	require.ErrorIs(t, err, ErrInvalidSessionUpdate)

	started, err := svc.Update(ctx, session.ID, dto.SessionUpdateRequest{Status: stringPtr(models.SessionStatusInProgress)})
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusInProgress, started.Status)
	require.NotNil(t, started.StartedAt)

	score := 91.0
	completed, err := svc.Update(ctx, session.ID, dto.SessionUpdateRequest{
		Status: stringPtr(models.SessionStatusCompleted),
		Score:  &score,
		Notes:  stringPtr("Clear priorities"),
	})
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusCompleted, completed.Status)
	require.Equal(t, 91.0, *completed.Score)
	require.Equal(t, "Clear priorities", completed.Notes)
	require.NotNil(t, completed.CompletedAt)

	_, err = svc.Update(ctx, "missing", dto.SessionUpdateRequest{Status: stringPtr(models.SessionStatusCancelled)})
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.Update(ctx, session.ID, dto.SessionUpdateRequest{Status: stringPtr("paused")})
	require.Error(t, err)

	list, err := svc.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestSessionServiceActiveLifecycle(t *testing.T) {
	repos := newRepositorySet(setupServiceDB(t))
	svc := NewSessionService(repos.sessions, nil, testValidator(), testLogger())
	ctx := context.Background()

	_, err := svc.Active(ctx, "u2")
	require.ErrorIs(t, err, ErrNoActiveSession)

	started, err := svc.StartActive(ctx, "u2", "Session 1")
	require.NoError(t, err)
	require.True(t, started.IsActive())

	_, err = svc.StartActive(ctx, "u2", "Session 2")
	require.ErrorIs(t, err, ErrActiveSessionExists)

	ended, err := svc.EndActive(ctx, "u2")
	require.NoError(t, err)
	require.Equal(t, started.ID, ended.ID)
	require.Equal(t, models.SessionStatusCompleted, ended.Status)

	_, err = svc.EndActive(ctx, "u2")
	require.ErrorIs(t, err, ErrNoActiveSession)
}
