package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/heycoach-api/internal/models"
	"github.com/noah-isme/heycoach-api/internal/repository"
)

func TestSeedServiceTokenGuard(t *testing.T) {
	db := setupServiceDB(t)
	repo := repository.NewSeedRepository(db)
	ctx := context.Background()

	_, err := NewSeedService(repo, false, "secret", testLogger()).Seed(ctx, "secret")
	require.ErrorIs(t, err, ErrSeedDisabled)

	svc := NewSeedService(repo, true, "secret", testLogger())
	_, err = svc.Seed(ctx, "wrong")
	require.ErrorIs(t, err, ErrSeedUnauthorized)

	_, err = NewSeedService(repo, true, "", testLogger()).Seed(ctx, "")
	require.ErrorIs(t, err, ErrSeedUnauthorized)

	result, err := svc.Seed(ctx, " secret ")
	require.NoError(t, err)
	require.Equal(t, DemoUserID, result.UserID)
	require.Equal(t, 3, result.Sessions)
	require.Equal(t, 3, result.Assignments)
	require.Equal(t, 2, result.Notifications)
	require.Equal(t, 4, result.Metrics)
}

func TestSeedDemoIsIdempotent(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewSeedService(repository.NewSeedRepository(db), false, "", testLogger())
	ctx := context.Background()

	_, err := svc.SeedDemo(ctx)
	require.NoError(t, err)

	second, err := svc.SeedDemo(ctx)
	require.NoError(t, err)
	require.Zero(t, second.Sessions)
	require.Zero(t, second.Assignments)

	var count int64
	require.NoError(t, db.Model(&models.Assignment{}).Where("user_id = ?", DemoUserID).Count(&count).Error)
	require.Equal(t, int64(3), count)

	var completed models.Assignment
	require.NoError(t, db.First(&completed, "id = ?", "assignment-3").Error)
	require.Equal(t, 88.0, *completed.Score)
}
