package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/heycoach-api/internal/models"
)

// ProgressMetricRepository persists per-period progress measurements.
type ProgressMetricRepository interface {
	Create(ctx context.Context, metric *models.ProgressMetric) error
	ListByUserAndPeriod(ctx context.Context, userID, period string, start, end time.Time) ([]models.ProgressMetric, error)
}

type progressMetricRepository struct {
	db *gorm.DB
}

// NewProgressMetricRepository instantiates a GORM-backed repository.
func NewProgressMetricRepository(db *gorm.DB) ProgressMetricRepository {
	return &progressMetricRepository{db: db}
}

func (r *progressMetricRepository) Create(ctx context.Context, metric *models.ProgressMetric) error {
	return r.db.WithContext(ctx).Create(metric).Error
}

// ListByUserAndPeriod returns metrics whose period starts within [start, end], oldest first.
func (r *progressMetricRepository) ListByUserAndPeriod(ctx context.Context, userID, period string, start, end time.Time) ([]models.ProgressMetric, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if period != "" {
		query = query.Where("period = ?", period)
	}
	if !start.IsZero() {
		query = query.Where("period_start >= ?", start)
	}
	if !end.IsZero() {
		query = query.Where("period_start <= ?", end)
	}

	var metrics []models.ProgressMetric
	if err := query.Order("period_start ASC").Find(&metrics).Error; err != nil {
		return nil, err
	}
	return metrics, nil
}
