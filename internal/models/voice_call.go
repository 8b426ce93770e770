package models

import (
	"time"

	"gorm.io/gorm"
)

// Voice call lifecycle states.
const (
	VoiceCallStatusInitiated  = "initiated"
	VoiceCallStatusInProgress = "in_progress"
	VoiceCallStatusCompleted  = "completed"
	VoiceCallStatusFailed     = "failed"
)

// VoiceCall tracks a telephony call placed for a voice coaching session.
type VoiceCall struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	SessionID     string    `gorm:"size:64;index;not null" json:"sessionId"`
	UserID        string    `gorm:"size:64;index;not null" json:"userId"`
	CallSID       *string   `gorm:"column:call_sid;size:64;uniqueIndex" json:"callSid,omitempty"`
	RecordingURL  string    `gorm:"size:1024" json:"recordingUrl"`
	Transcription string    `gorm:"type:text" json:"transcription"`
	Duration      *int      `json:"duration,omitempty"`
	Score         *float64  `json:"score,omitempty"`
	Feedback      string    `gorm:"type:text" json:"feedback"`
	Status        string    `gorm:"size:32;not null;default:initiated" json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// BeforeCreate assigns an identifier when none was provided.
func (v *VoiceCall) BeforeCreate(*gorm.DB) error {
	v.ID = newID(v.ID)
	return nil
}

// IsTerminal reports whether the call has finished, successfully or not.
func (v VoiceCall) IsTerminal() bool {
	return v.Status == VoiceCallStatusCompleted || v.Status == VoiceCallStatusFailed
}
