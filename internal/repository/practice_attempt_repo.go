package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/heycoach-api/internal/models"
)

// AttemptCompletion carries the terminal values written when an attempt completes.
type AttemptCompletion struct {
	Score       float64
	Feedback    string
	Metrics     models.PracticeMetrics
	CompletedAt time.Time
}

// PracticeAttemptRepository persists practice attempts and their conversation records.
type PracticeAttemptRepository interface {
	Create(ctx context.Context, attempt *models.PracticeAttempt) error
	GetByID(ctx context.Context, id string) (models.PracticeAttempt, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.PracticeAttempt, error)
	ListCompletedByAssignment(ctx context.Context, assignmentID string) ([]models.PracticeAttempt, error)
	UpdateConversation(ctx context.Context, id string, conversation models.Conversation, expectedRevision int) error
	Complete(ctx context.Context, id string, completion AttemptCompletion) error
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) PracticeAttemptRepository
}

type practiceAttemptRepository struct {
	db *gorm.DB
}

// NewPracticeAttemptRepository instantiates a GORM-backed repository.
func NewPracticeAttemptRepository(db *gorm.DB) PracticeAttemptRepository {
	return &practiceAttemptRepository{db: db}
}

func (r *practiceAttemptRepository) WithTx(tx *gorm.DB) PracticeAttemptRepository {
	return &practiceAttemptRepository{db: tx}
}

func (r *practiceAttemptRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *practiceAttemptRepository) Create(ctx context.Context, attempt *models.PracticeAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *practiceAttemptRepository) GetByID(ctx context.Context, id string) (models.PracticeAttempt, error) {
	var attempt models.PracticeAttempt
	if err := r.db.WithContext(ctx).First(&attempt, "id = ?", id).Error; err != nil {
		return models.PracticeAttempt{}, err
	}
	return attempt, nil
}

func (r *practiceAttemptRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.PracticeAttempt, error) {
	var attempts []models.PracticeAttempt
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("started_at DESC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *practiceAttemptRepository) ListCompletedByAssignment(ctx context.Context, assignmentID string) ([]models.PracticeAttempt, error) {
	var attempts []models.PracticeAttempt
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ? AND status = ?", assignmentID, models.AttemptStatusCompleted).
		Order("completed_at ASC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

// UpdateConversation replaces the conversation record only if the stored revision still
// equals expectedRevision and the attempt is in progress. The revision is bumped on success.
func (r *practiceAttemptRepository) UpdateConversation(ctx context.Context, id string, conversation models.Conversation, expectedRevision int) error {
	result := r.db.WithContext(ctx).
		Model(&models.PracticeAttempt{}).
		Where("id = ? AND revision = ? AND status = ?", id, expectedRevision, models.AttemptStatusInProgress).
		Updates(map[string]interface{}{
			"conversation_data": conversation,
			"revision":          expectedRevision + 1,
			"updated_at":        time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleRevision
	}
	return nil
}

// Complete transitions an in-progress attempt to completed. ErrNotInProgress is returned
// when the row was already completed or abandoned.
func (r *practiceAttemptRepository) Complete(ctx context.Context, id string, completion AttemptCompletion) error {
	metrics := datatypes.NewJSONType(completion.Metrics)
	result := r.db.WithContext(ctx).
		Model(&models.PracticeAttempt{}).
		Where("id = ? AND status = ?", id, models.AttemptStatusInProgress).
		Updates(map[string]interface{}{
			"status":       models.AttemptStatusCompleted,
			"score":        completion.Score,
			"feedback":     completion.Feedback,
			"metrics":      metrics,
			"completed_at": completion.CompletedAt,
			"updated_at":   completion.CompletedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotInProgress
	}
	return nil
}
