package models

import (
	"time"

	"gorm.io/gorm"
)

// Coaching session types.
const (
	SessionTypeText  = "text"
	SessionTypeVoice = "voice"
)

// Coaching session lifecycle states.
const (
	SessionStatusScheduled  = "scheduled"
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"
	SessionStatusCancelled  = "cancelled"
)

// CoachingSession is a text or voice conversation between a user and the coach persona.
type CoachingSession struct {
	ID          string     `gorm:"primaryKey;size:64" json:"id"`
	UserID      string     `gorm:"size:64;index;not null" json:"userId"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Type        string     `gorm:"size:16;not null;default:text" json:"type"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Status      string     `gorm:"size:32;not null;default:scheduled;index" json:"status"`
	Duration    *int       `json:"duration,omitempty"`
	Score       *float64   `json:"score,omitempty"`
	Notes       string     `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TableName keeps the original table name.
func (CoachingSession) TableName() string {
	return "sessions"
}

// BeforeCreate assigns an identifier when none was provided.
func (s *CoachingSession) BeforeCreate(*gorm.DB) error {
	s.ID = newID(s.ID)
	return nil
}

// IsActive reports whether the session is currently running.
func (s CoachingSession) IsActive() bool {
	return s.Status == SessionStatusInProgress
}
