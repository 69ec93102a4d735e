package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of published events
type EventType string

const (
	// Session events
	EventSessionStarted   EventType = "session.started"
	EventSessionSubmitted EventType = "session.submitted"
	EventSessionTimedOut  EventType = "session.timed_out"

	// Proctoring events
	EventProctoringFlagged EventType = "proctoring.flagged"

	// Result events
	EventCertificationAwarded EventType = "certification.awarded"
	EventInterviewCompleted   EventType = "interview.completed"
)

// Event is the envelope shared by every published event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Session event payloads

type SessionStartedEvent struct {
	SessionID       string    `json:"session_id"`
	AssessmentID    uint      `json:"assessment_id"`
	AssessmentTitle string    `json:"assessment_title"`
	UserID          uint      `json:"user_id"`
	StartedAt       time.Time `json:"started_at"`
	TimeLimit       int       `json:"time_limit"` // seconds
}

type SessionSubmittedEvent struct {
	SessionID       string    `json:"session_id"`
	AssessmentID    uint      `json:"assessment_id"`
	AssessmentTitle string    `json:"assessment_title"`
	UserID          uint      `json:"user_id"`
	SubmittedAt     time.Time `json:"submitted_at"`
	EndReason       string    `json:"end_reason"`
	Percentage      float64   `json:"percentage"`
	Passed          bool      `json:"passed"`
}

type ProctoringFlaggedEvent struct {
	SessionID   string    `json:"session_id"`
	UserID      uint      `json:"user_id"`
	Message     string    `json:"message"`
	PersonCount int       `json:"person_count"`
	RecordedAt  time.Time `json:"recorded_at"`
}

type CertificationAwardedEvent struct {
	CertificationID uint      `json:"certification_id"`
	UserID          uint      `json:"user_id"`
	AssessmentID    uint      `json:"assessment_id"`
	Title           string    `json:"title"`
	Percentage      float64   `json:"percentage"`
	AwardedAt       time.Time `json:"awarded_at"`
}

type InterviewCompletedEvent struct {
	SessionID    uint      `json:"session_id"`
	InterviewID  uint      `json:"interview_id"`
	UserID       uint      `json:"user_id"`
	AverageScore float64   `json:"average_score"`
	Percentage   float64   `json:"percentage"`
	Passed       bool      `json:"passed"`
	GradedAt     time.Time `json:"graded_at"`
}

// Event factory functions

func newEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "assessment-service",
		Version:   "1.0",
		Data:      data,
	}
}

func NewSessionStartedEvent(sessionID string, assessmentID uint, title string, userID uint, startedAt time.Time, timeLimit int) *Event {
	return newEvent(EventSessionStarted, SessionStartedEvent{
		SessionID:       sessionID,
		AssessmentID:    assessmentID,
		AssessmentTitle: title,
		UserID:          userID,
		StartedAt:       startedAt,
		TimeLimit:       timeLimit,
	})
}

func NewSessionSubmittedEvent(sessionID string, assessmentID uint, title string, userID uint, submittedAt time.Time, endReason string, percentage float64, passed bool) *Event {
	eventType := EventSessionSubmitted
	if endReason == "timeout" {
		eventType = EventSessionTimedOut
	}
	return newEvent(eventType, SessionSubmittedEvent{
		SessionID:       sessionID,
		AssessmentID:    assessmentID,
		AssessmentTitle: title,
		UserID:          userID,
		SubmittedAt:     submittedAt,
		EndReason:       endReason,
		Percentage:      percentage,
		Passed:          passed,
	})
}

func NewProctoringFlaggedEvent(sessionID string, userID uint, message string, personCount int, recordedAt time.Time) *Event {
	return newEvent(EventProctoringFlagged, ProctoringFlaggedEvent{
		SessionID:   sessionID,
		UserID:      userID,
		Message:     message,
		PersonCount: personCount,
		RecordedAt:  recordedAt,
	})
}

func NewCertificationAwardedEvent(certificationID, userID, assessmentID uint, title string, percentage float64, awardedAt time.Time) *Event {
	return newEvent(EventCertificationAwarded, CertificationAwardedEvent{
		CertificationID: certificationID,
		UserID:          userID,
		AssessmentID:    assessmentID,
		Title:           title,
		Percentage:      percentage,
		AwardedAt:       awardedAt,
	})
}

func NewInterviewCompletedEvent(sessionID, interviewID, userID uint, averageScore, percentage float64, passed bool, gradedAt time.Time) *Event {
	return newEvent(EventInterviewCompleted, InterviewCompletedEvent{
		SessionID:    sessionID,
		InterviewID:  interviewID,
		UserID:       userID,
		AverageScore: averageScore,
		Percentage:   percentage,
		Passed:       passed,
		GradedAt:     gradedAt,
	})
}
