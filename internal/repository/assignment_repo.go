package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/heycoach-api/internal/models"
)

// AssignmentRepository defines persistence operations for assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id string) (models.Assignment, error)
	ListByUser(ctx context.Context, userID string) ([]models.Assignment, error)
	ListOpenByUser(ctx context.Context, userID string) ([]models.Assignment, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Complete(ctx context.Context, id string, score float64, feedback string, completedAt time.Time) error
	MarkOverdue(ctx context.Context, now time.Time) ([]models.Assignment, error)
	WithTx(tx *gorm.DB) AssignmentRepository
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) WithTx(tx *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: tx}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) GetByID(ctx context.Context, id string) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).First(&assignment, "id = ?", id).Error; err != nil {
		return models.Assignment{}, err
	}
	return assignment, nil
}

func (r *assignmentRepository) ListByUser(ctx context.Context, userID string) ([]models.Assignment, error) {
	var assignments []models.Assignment
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepository) ListOpenByUser(ctx context.Context, userID string) ([]models.Assignment, error) {
	var assignments []models.Assignment
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, []string{models.AssignmentStatusPending, models.AssignmentStatusInProgress}).
		Order("due_date ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepository) UpdateStatus(ctx context.Context, id, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Complete writes the terminal score and feedback of the assignment.
func (r *assignmentRepository) Complete(ctx context.Context, id string, score float64, feedback string, completedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       models.AssignmentStatusCompleted,
			"score":        score,
			"feedback":     feedback,
			"completed_at": completedAt,
			"updated_at":   completedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkOverdue flips open assignments whose due date has passed and returns the affected rows.
func (r *assignmentRepository) MarkOverdue(ctx context.Context, now time.Time) ([]models.Assignment, error) {
	var overdue []models.Assignment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("due_date IS NOT NULL AND due_date < ? AND status IN ?", now, []string{models.AssignmentStatusPending, models.AssignmentStatusInProgress}).
			Find(&overdue).Error; err != nil {
			return err
		}
		if len(overdue) == 0 {
			return nil
		}

		ids := make([]string, 0, len(overdue))
		for _, assignment := range overdue {
			ids = append(ids, assignment.ID)
		}

		return tx.Model(&models.Assignment{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{"status": models.AssignmentStatusOverdue, "updated_at": now}).Error
	})
	if err != nil {
		return nil, err
	}

	for i := range overdue {
		overdue[i].Status = models.AssignmentStatusOverdue
	}
	return overdue, nil
}
