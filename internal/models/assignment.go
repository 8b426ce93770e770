package models

import (
	"time"

	"gorm.io/gorm"
)

// Assignment difficulty levels.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Assignment lifecycle states.
const (
	AssignmentStatusPending    = "pending"
	AssignmentStatusInProgress = "in_progress"
	AssignmentStatusCompleted  = "completed"
	AssignmentStatusOverdue    = "overdue"
)

// Assignment is a roleplay scenario a user practises against the simulated client.
type Assignment struct {
	ID          string     `gorm:"primaryKey;size:64" json:"id"`
	UserID      string     `gorm:"size:64;index;not null" json:"userId"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text;not null" json:"description"`
	Scenario    string     `gorm:"type:text;not null" json:"scenario"`
	Difficulty  string     `gorm:"size:32;not null;default:intermediate" json:"difficulty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Status      string     `gorm:"size:32;not null;default:pending;index" json:"status"`
	Score       *float64   `json:"score,omitempty"`
	Feedback    string     `gorm:"type:text" json:"feedback"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// BeforeCreate assigns an identifier when none was provided.
func (a *Assignment) BeforeCreate(*gorm.DB) error {
	a.ID = newID(a.ID)
	return nil
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	if a.DueDate == nil {
		return false
	}
	return reference.After(*a.DueDate)
}

// IsOpen reports whether the assignment can still be practised towards completion.
func (a Assignment) IsOpen() bool {
	return a.Status == AssignmentStatusPending || a.Status == AssignmentStatusInProgress
}
