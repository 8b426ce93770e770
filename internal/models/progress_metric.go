package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Aggregation periods for progress metrics.
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// MetricTypePracticeScore is recorded for every completed practice attempt.
const MetricTypePracticeScore = "practice_score"

// ProgressMetric is one measured value for a user over a period.
type ProgressMetric struct {
	ID          string            `gorm:"primaryKey;size:64" json:"id"`
	UserID      string            `gorm:"size:64;index;not null" json:"userId"`
	MetricType  string            `gorm:"size:64;not null" json:"metricType"`
	MetricValue float64           `gorm:"not null" json:"metricValue"`
	Period      string            `gorm:"size:16;not null;index" json:"period"`
	PeriodStart time.Time         `gorm:"not null;index" json:"periodStart"`
	PeriodEnd   time.Time         `gorm:"not null" json:"periodEnd"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// BeforeCreate assigns an identifier when none was provided.
func (m *ProgressMetric) BeforeCreate(*gorm.DB) error {
	m.ID = newID(m.ID)
	return nil
}

// PeriodBounds returns the [start, end) window of the named period containing t.
// Weeks start on Monday.
func PeriodBounds(period string, t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch period {
	case PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	case PeriodMonthly:
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	default:
		return day, day.AddDate(0, 0, 1)
	}
}
