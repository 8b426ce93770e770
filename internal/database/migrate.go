package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/heycoach-api/internal/models"
)

// Models lists every persisted entity in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.CoachingSession{},
		&models.Assignment{},
		&models.Message{},
		&models.PracticeAttempt{},
		&models.VoiceCall{},
		&models.ProgressMetric{},
		&models.Notification{},
	}
}

// Migrate creates or updates the schema for all entities.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
