package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WaitlistSubmission is one append-only row of waitlist_submissions.
// Email is not unique: repeat signups are stored as separate rows.
type WaitlistSubmission struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id"`
	Email       string    `gorm:"not null;index" json:"email"`
	Role        string    `gorm:"not null;default:''" json:"role"`
	Meetings    string    `gorm:"column:meetings;not null;default:''" json:"meetings"`
	Suggestions string    `gorm:"not null;default:''" json:"suggestions"`
	Source      string    `gorm:"not null;default:'general'" json:"source"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (WaitlistSubmission) TableName() string {
	return "waitlist_submissions"
}

func (s *WaitlistSubmission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
