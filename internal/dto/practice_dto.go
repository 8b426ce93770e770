package dto

import (
	"time"

	"github.com/noah-isme/heycoach-api/internal/models"
)

// StartPracticeRequest opens a new attempt on an assignment.
type StartPracticeRequest struct {
	AssignmentID string `json:"assignmentId" validate:"required,max=64"`
	UserID       string `json:"userId" validate:"required,max=64"`
}

// AssignmentContext lets the caller override the scenario used for a turn.
type AssignmentContext struct {
	Scenario string `json:"scenario" validate:"omitempty,max=10000"`
}

// PracticeMessageRequest carries one coach turn.
type PracticeMessageRequest struct {
	UserMessage string             `json:"userMessage" validate:"required,min=1,max=8000"`
	Assignment  *AssignmentContext `json:"assignment" validate:"omitempty"`
}

// CompletePracticeRequest finalises an attempt. Omitted score and metrics are computed
// from the scored turns.
type CompletePracticeRequest struct {
	Score    *float64                `json:"score" validate:"omitempty,min=0,max=100"`
	Feedback string                  `json:"feedback" validate:"max=8000"`
	Metrics  *models.PracticeMetrics `json:"metrics"`
}

// PracticeTurnResponse is a turn in the persisted conversation shape.
type PracticeTurnResponse struct {
	Role       string             `json:"role"`
	Content    string             `json:"content"`
	Evaluation *models.Evaluation `json:"evaluation,omitempty"`
}

// PracticeAdvanceResponse is returned after a coach turn is accepted.
type PracticeAdvanceResponse struct {
	ClientResponse      string                 `json:"clientResponse"`
	Evaluation          models.Evaluation      `json:"evaluation"`
	ConversationHistory []PracticeTurnResponse `json:"conversationHistory"`
}

// PracticeCompleteResponse acknowledges a completion.
type PracticeCompleteResponse struct {
	Success bool `json:"success"`
}

// PracticeAttemptResponse is the serialized attempt.
type PracticeAttemptResponse struct {
	ID               string                  `json:"id"`
	AssignmentID     string                  `json:"assignmentId"`
	UserID           string                  `json:"userId"`
	Status           string                  `json:"status"`
	StartedAt        time.Time               `json:"startedAt"`
	CompletedAt      *time.Time              `json:"completedAt,omitempty"`
	Score            *float64                `json:"score,omitempty"`
	Feedback         string                  `json:"feedback"`
	ConversationData models.Conversation     `json:"conversationData"`
	Metrics          *models.PracticeMetrics `json:"metrics,omitempty"`
}

// PracticeSummaryResponse is the mentor summary over completed attempts.
type PracticeSummaryResponse struct {
	AssignmentID string  `json:"assignmentId"`
	Attempts     int     `json:"attempts"`
	AverageScore float64 `json:"averageScore"`
	Summary      string  `json:"summary"`
}

// NewPracticeTurnResponses converts a conversation into its wire turns.
func NewPracticeTurnResponses(conversation models.Conversation) []PracticeTurnResponse {
	out := make([]PracticeTurnResponse, 0, conversation.Len())
	for _, turn := range conversation.Turns {
		out = append(out, PracticeTurnResponse{
			Role:       turn.Role(),
			Content:    turn.Text,
			Evaluation: turn.Evaluation,
		})
	}
	return out
}

// NewPracticeAttemptResponse converts an attempt model to DTO.
func NewPracticeAttemptResponse(model models.PracticeAttempt) PracticeAttemptResponse {
	response := PracticeAttemptResponse{
		ID:               model.ID,
		AssignmentID:     model.AssignmentID,
		UserID:           model.UserID,
		Status:           model.Status,
		StartedAt:        model.StartedAt,
		CompletedAt:      model.CompletedAt,
		Score:            model.Score,
		Feedback:         model.Feedback,
		ConversationData: model.Conversation,
	}
	if metrics, ok := model.MetricsSummary(); ok {
		response.Metrics = &metrics
	}
	return response
}

// NewPracticeAttemptResponseSlice converts a slice to DTOs.
func NewPracticeAttemptResponseSlice(items []models.PracticeAttempt) []PracticeAttemptResponse {
	out := make([]PracticeAttemptResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewPracticeAttemptResponse(item))
	}
	return out
}
