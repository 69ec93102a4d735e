package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Interview is a timed question-and-answer exercise graded per answer by an
// Evaluator instead of test cases.
type Interview struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	Title        string  `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description  *string `json:"description" gorm:"type:text"`
	Role         string  `json:"role" gorm:"size:100"`
	PassCriteria int     `json:"pass_criteria" gorm:"default:80" validate:"min=0,max=100"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Questions []InterviewQuestion `json:"questions" gorm:"foreignKey:InterviewID"`
}

func (Interview) TableName() string {
	return "interviews"
}

func (i *Interview) EffectivePassCriteria() int {
	if i.PassCriteria <= 0 {
		return DefaultPassCriteria
	}
	return i.PassCriteria
}

type InterviewQuestion struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	InterviewID uint   `json:"interview_id" gorm:"not null;index"`
	Position    int    `json:"position" gorm:"not null"`
	Text        string `json:"text" gorm:"type:text;not null" validate:"required"`
	// ExpectedAnswer guides the evaluator; never sent to candidates.
	ExpectedAnswer string `json:"-" gorm:"type:text"`
	Category       string `json:"category" gorm:"size:100"`
	// TimeLimit in seconds for this single question.
	TimeLimit int `json:"time_limit" gorm:"not null;default:120" validate:"min=30,max=600"`
}

func (InterviewQuestion) TableName() string {
	return "interview_questions"
}

type InterviewSession struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	InterviewID uint          `json:"interview_id" gorm:"not null;index"`
	UserID      uint          `json:"user_id" gorm:"not null;index"`
	Status      SessionStatus `json:"status" gorm:"not null;default:in_progress;size:20"`
	StartedAt   time.Time     `json:"started_at" gorm:"not null"`
	SubmittedAt *time.Time    `json:"submitted_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Interview *Interview `json:"interview,omitempty" gorm:"foreignKey:InterviewID"`
}

func (InterviewSession) TableName() string {
	return "interview_sessions"
}

type InterviewResult struct {
	ID          uint `json:"id" gorm:"primaryKey"`
	SessionID   uint `json:"session_id" gorm:"uniqueIndex;not null"`
	InterviewID uint `json:"interview_id" gorm:"not null;index"`
	UserID      uint `json:"user_id" gorm:"not null;index"`

	// AverageScore on the evaluator's 1-5 scale; Percentage normalizes it to
	// 0-100 for the shared pass threshold.
	AverageScore float64 `json:"average_score" gorm:"not null"`
	Percentage   float64 `json:"percentage" gorm:"not null"`
	Passed       bool    `json:"passed" gorm:"not null"`

	// Evaluations holds []AnswerEvaluation.
	Evaluations datatypes.JSON `json:"evaluations" gorm:"type:jsonb"`

	GradedAt  time.Time `json:"graded_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (InterviewResult) TableName() string {
	return "interview_results"
}

// AnswerEvaluation is one entry of InterviewResult.Evaluations.
type AnswerEvaluation struct {
	QuestionID uint    `json:"question_id"`
	Answer     string  `json:"answer"`
	Score      float64 `json:"score"` // 1-5
	Feedback   string  `json:"feedback"`
	Category   string  `json:"category"`
}
