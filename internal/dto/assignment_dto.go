package dto

// AssignmentCreateRequest describes the payload for creating a new assignment.
type AssignmentCreateRequest struct {
	UserID      string `json:"userId" validate:"required,max=64"`
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"required,min=3"`
	Scenario    string `json:"scenario" validate:"required,min=3"`
	Difficulty  string `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	DueDate     string `json:"dueDate" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// SweepResult reports how many assignments were flagged overdue.
type SweepResult struct {
	Overdue int `json:"overdue"`
}
