package models

import "time"

// ProctoringFlag is an append-only record of a suspicious proctoring sample.
// Flags are never deduplicated or rewritten.
type ProctoringFlag struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	SessionID string `json:"session_id" gorm:"not null;index;size:36"`

	// Message is the human-readable flag text, e.g.
	// "14:03:21: No person detected."
	Message string `json:"message" gorm:"type:text;not null"`

	// PersonCount is the person detections in the offending sample.
	PersonCount int       `json:"person_count" gorm:"not null"`
	RecordedAt  time.Time `json:"recorded_at" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
}

func (ProctoringFlag) TableName() string {
	return "proctoring_flags"
}
