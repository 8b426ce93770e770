package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Message roles.
const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
	MessageRoleSystem    = "system"
)

// Message is one utterance in a coaching session or assignment thread.
type Message struct {
	ID           string            `gorm:"primaryKey;size:64" json:"id"`
	SessionID    *string           `gorm:"size:64;index" json:"sessionId,omitempty"`
	AssignmentID *string           `gorm:"size:64;index" json:"assignmentId,omitempty"`
	UserID       string            `gorm:"size:64;index;not null" json:"userId"`
	Role         string            `gorm:"size:16;not null" json:"role"`
	Content      string            `gorm:"type:text;not null" json:"content"`
	Metadata     datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// BeforeCreate assigns an identifier when none was provided.
func (m *Message) BeforeCreate(*gorm.DB) error {
	m.ID = newID(m.ID)
	return nil
}
