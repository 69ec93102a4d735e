package models

import (
	"time"

	"gorm.io/datatypes"
)

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionSubmitted  SessionStatus = "submitted"
	SessionTimedOut   SessionStatus = "timed_out"
)

type EndReason string

const (
	EndReasonManual  EndReason = "manual"
	EndReasonTimeout EndReason = "timeout"
	EndReasonUnload  EndReason = "unload"
)

// AssessmentSession is one attempt at an assessment. Its ID is a UUID so the
// client can hold it without leaking sequence information.
type AssessmentSession struct {
	ID           string        `json:"id" gorm:"primaryKey;size:36"`
	AssessmentID uint          `json:"assessment_id" gorm:"not null;index"`
	UserID       uint          `json:"user_id" gorm:"not null;index"`
	Status       SessionStatus `json:"status" gorm:"not null;default:in_progress;size:20;index"`

	StartedAt time.Time `json:"started_at" gorm:"not null"`
	// TimeLimit in seconds; zero means untimed.
	TimeLimit   int        `json:"time_limit" gorm:"not null"`
	EndTime     *time.Time `json:"end_time" gorm:"index"`
	SubmittedAt *time.Time `json:"submitted_at"`
	EndReason   EndReason  `json:"end_reason,omitempty" gorm:"size:20"`

	// Answers maps question id -> raw answer (selected option or source code).
	Answers datatypes.JSON `json:"answers" gorm:"type:jsonb"`
	// Statuses maps question id -> navigation status (see session package).
	Statuses datatypes.JSON `json:"statuses" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Assessment *Assessment      `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID"`
	Flags      []ProctoringFlag `json:"flags,omitempty" gorm:"foreignKey:SessionID"`
}

func (AssessmentSession) TableName() string {
	return "assessment_sessions"
}

// IsTerminal reports whether the session can no longer accept answers,
// proctoring samples, or submissions.
func (s *AssessmentSession) IsTerminal() bool {
	return s.Status != SessionInProgress
}

// RemainingSeconds returns the seconds left at the given instant, clamped at
// zero. Untimed sessions always report zero.
func (s *AssessmentSession) RemainingSeconds(now time.Time) int {
	if s.TimeLimit <= 0 || s.EndTime == nil {
		return 0
	}
	remaining := int(s.EndTime.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Expired reports whether the deadline has passed for a timed session.
func (s *AssessmentSession) Expired(now time.Time) bool {
	return s.TimeLimit > 0 && s.EndTime != nil && !now.Before(*s.EndTime)
}
