package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedRepository writes fixture rows, leaving existing rows untouched.
type SeedRepository interface {
	InsertMissing(ctx context.Context, records interface{}) (int64, error)
	Transaction(ctx context.Context, fn func(repo SeedRepository) error) error
}

type seedRepository struct {
	db *gorm.DB
}

// NewSeedRepository constructs the repository implementation.
func NewSeedRepository(db *gorm.DB) SeedRepository {
	return &seedRepository{db: db}
}

// InsertMissing creates the records, skipping primary keys that already exist.
// records must be a pointer to a slice of models.
func (r *seedRepository) InsertMissing(ctx context.Context, records interface{}) (int64, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(records)
	return result.RowsAffected, result.Error
}

func (r *seedRepository) Transaction(ctx context.Context, fn func(repo SeedRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&seedRepository{db: tx})
	})
}
