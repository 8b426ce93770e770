package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification types.
const (
	NotificationTypeMilestone       = "milestone"
	NotificationTypeAssignmentDue   = "assignment_due"
	NotificationTypeSessionReminder = "session_reminder"
	NotificationTypeGeneral         = "general"
)

// Notification is an in-app message shown on the dashboard.
type Notification struct {
	ID        string            `gorm:"primaryKey;size:64" json:"id"`
	UserID    string            `gorm:"size:64;index" json:"userId"`
	Type      string            `gorm:"size:32;not null" json:"type"`
	Title     string            `gorm:"size:255;not null" json:"title"`
	Message   string            `gorm:"type:text;not null" json:"message"`
	IsRead    bool              `gorm:"not null;default:false" json:"isRead"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// BeforeCreate assigns an identifier when none was provided.
func (n *Notification) BeforeCreate(*gorm.DB) error {
	n.ID = newID(n.ID)
	return nil
}
