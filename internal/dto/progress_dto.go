package dto

import (
	"time"

	"github.com/noah-isme/heycoach-api/internal/models"
)

// ProgressQuery selects the metrics window.
type ProgressQuery struct {
	Period    string `validate:"omitempty,oneof=daily weekly monthly"`
	StartDate string `validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	EndDate   string `validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// RecordMetricRequest stores a single progress measurement.
type RecordMetricRequest struct {
	UserID      string                 `json:"userId" validate:"required,max=64"`
	MetricType  string                 `json:"metricType" validate:"required,max=64"`
	MetricValue float64                `json:"metricValue"`
	Period      string                 `json:"period" validate:"required,oneof=daily weekly monthly"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// ProgressMetricsResponse lists metrics for a window.
type ProgressMetricsResponse struct {
	UserID    string                  `json:"userId"`
	Period    string                  `json:"period"`
	StartDate time.Time               `json:"startDate"`
	EndDate   time.Time               `json:"endDate"`
	Metrics   []models.ProgressMetric `json:"metrics"`
}

// DashboardResponse aggregates a user's coaching activity.
type DashboardResponse struct {
	UserID               string    `json:"userId"`
	TotalSessions        int       `json:"totalSessions"`
	CompletedSessions    int       `json:"completedSessions"`
	TotalAssignments     int       `json:"totalAssignments"`
	CompletedAssignments int       `json:"completedAssignments"`
	OverdueAssignments   int       `json:"overdueAssignments"`
	AverageSessionScore  float64   `json:"averageSessionScore"`
	AveragePracticeScore float64   `json:"averagePracticeScore"`
	PracticeScores       []float64 `json:"practiceScores"`
	GeneratedAt          time.Time `json:"generatedAt"`
	CacheHit             bool      `json:"cacheHit"`
}
