package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/heycoach-api/internal/models"
)

// SessionRepository defines persistence operations for coaching sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.CoachingSession) error
	GetByID(ctx context.Context, id string) (models.CoachingSession, error)
	ListByUser(ctx context.Context, userID string) ([]models.CoachingSession, error)
	FindActive(ctx context.Context, userID string) (models.CoachingSession, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Complete(ctx context.Context, id string, score *float64, notes string) error
}

type sessionRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSessionRepository instantiates a GORM-backed repository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db, now: time.Now}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.CoachingSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (models.CoachingSession, error) {
	var session models.CoachingSession
	if err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return models.CoachingSession{}, err
	}
	return session, nil
}

func (r *sessionRepository) ListByUser(ctx context.Context, userID string) ([]models.CoachingSession, error) {
	var sessions []models.CoachingSession
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepository) FindActive(ctx context.Context, userID string) (models.CoachingSession, error) {
	var session models.CoachingSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.SessionStatusInProgress).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		return models.CoachingSession{}, err
	}
	return session, nil
}

func (r *sessionRepository) UpdateStatus(ctx context.Context, id, status string) error {
	now := r.now().UTC()
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": now,
	}
	if status == models.SessionStatusInProgress {
		updates["started_at"] = now
	}

	result := r.db.WithContext(ctx).Model(&models.CoachingSession{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *sessionRepository) Complete(ctx context.Context, id string, score *float64, notes string) error {
	now := r.now().UTC()
	updates := map[string]interface{}{
		"status":       models.SessionStatusCompleted,
		"completed_at": now,
		"notes":        notes,
		"updated_at":   now,
	}
	if score != nil {
		updates["score"] = *score
	}

	result := r.db.WithContext(ctx).Model(&models.CoachingSession{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
