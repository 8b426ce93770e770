package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a coachee reachable through the dashboard or WhatsApp.
type User struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	PhoneNumber string    `gorm:"size:32;uniqueIndex;not null" json:"phoneNumber"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BeforeCreate assigns an identifier when none was provided.
func (u *User) BeforeCreate(*gorm.DB) error {
	u.ID = newID(u.ID)
	return nil
}
