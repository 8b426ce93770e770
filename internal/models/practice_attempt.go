package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Practice attempt lifecycle states.
const (
	AttemptStatusInProgress = "in_progress"
	AttemptStatusCompleted  = "completed"
	AttemptStatusAbandoned  = "abandoned"
)

// PracticeMetrics summarises the scored turns of a completed attempt.
type PracticeMetrics struct {
	TotalExchanges int     `json:"totalExchanges"`
	AverageScore   float64 `json:"averageScore"`
	HighestScore   float64 `json:"highestScore"`
	LowestScore    float64 `json:"lowestScore"`
}

// PracticeAttempt is one run of an assignment's roleplay scenario.
type PracticeAttempt struct {
	ID           string                               `gorm:"primaryKey;size:64" json:"id"`
	AssignmentID string                               `gorm:"size:64;index;not null" json:"assignmentId"`
	UserID       string                               `gorm:"size:64;index;not null" json:"userId"`
	StartedAt    time.Time                            `gorm:"not null" json:"startedAt"`
	CompletedAt  *time.Time                           `json:"completedAt,omitempty"`
	Score        *float64                             `json:"score,omitempty"`
	Feedback     string                               `gorm:"type:text" json:"feedback"`
	Conversation Conversation                         `gorm:"column:conversation_data" json:"conversationData"`
	Revision     int                                  `gorm:"not null;default:0" json:"revision"`
	Metrics      *datatypes.JSONType[PracticeMetrics] `json:"metrics,omitempty"`
	Status       string                               `gorm:"size:32;not null;default:in_progress;index" json:"status"`
	CreatedAt    time.Time                            `json:"createdAt"`
	UpdatedAt    time.Time                            `json:"updatedAt"`
}

// BeforeCreate assigns an identifier and start time when missing.
func (p *PracticeAttempt) BeforeCreate(*gorm.DB) error {
	p.ID = newID(p.ID)
	if p.StartedAt.IsZero() {
		p.StartedAt = time.Now().UTC()
	}
	return nil
}

// IsInProgress reports whether turns can still be appended.
func (p PracticeAttempt) IsInProgress() bool {
	return p.Status == AttemptStatusInProgress
}

// MetricsSummary returns the stored metrics, if any.
func (p PracticeAttempt) MetricsSummary() (PracticeMetrics, bool) {
	if p.Metrics == nil {
		return PracticeMetrics{}, false
	}
	return p.Metrics.Data(), true
}
