package dto

// SessionCreateRequest describes the payload for scheduling a coaching session.
type SessionCreateRequest struct {
	UserID      string `json:"userId" validate:"required,max=64"`
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Type        string `json:"type" validate:"omitempty,oneof=text voice"`
	ScheduledAt string `json:"scheduledAt" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Notes       string `json:"notes" validate:"max=8000"`
}

// SessionUpdateRequest updates status, score, or notes of a session.
type SessionUpdateRequest struct {
	Status *string  `json:"status" validate:"omitempty,oneof=scheduled in_progress completed cancelled"`
	Score  *float64 `json:"score" validate:"omitempty,min=0,max=100"`
	Notes  *string  `json:"notes" validate:"omitempty,max=8000"`
}
