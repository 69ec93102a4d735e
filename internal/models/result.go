package models

import (
	"time"

	"gorm.io/datatypes"
)

// AssessmentResult is the graded outcome of one submitted session.
type AssessmentResult struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	SessionID    string `json:"session_id" gorm:"uniqueIndex;not null;size:36"`
	AssessmentID uint   `json:"assessment_id" gorm:"not null;index"`
	UserID       uint   `json:"user_id" gorm:"not null;index"`

	// Score is the raw points earned; MaxScore is one point per question.
	Score    float64 `json:"score" gorm:"not null"`
	MaxScore float64 `json:"max_score" gorm:"not null"`
	// Percentage is Score/MaxScore*100 rounded to 2 decimals.
	Percentage float64 `json:"percentage" gorm:"not null"`
	Passed     bool    `json:"passed" gorm:"not null"`

	// Details holds the per-question breakdown ([]QuestionResult).
	Details datatypes.JSON `json:"details" gorm:"type:jsonb"`

	GradedAt  time.Time `json:"graded_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`

	Assessment *Assessment `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID"`
	User       *User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (AssessmentResult) TableName() string {
	return "assessment_results"
}

// QuestionResult is one entry of AssessmentResult.Details.
type QuestionResult struct {
	QuestionID uint         `json:"question_id"`
	Type       QuestionType `json:"question_type"`
	Answer     string       `json:"answer"`
	Correct    bool         `json:"correct"`
	// Points earned for the question: 1 or 0 for MCQ, accepted/total for coding.
	Points float64 `json:"points"`
	// Coding only: hidden test case tally.
	CasesPassed int `json:"cases_passed,omitempty"`
	CasesTotal  int `json:"cases_total,omitempty"`
}

// Certification is awarded when a certification-granting assessment is passed.
type Certification struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"user_id" gorm:"not null;index"`
	AssessmentID uint      `json:"assessment_id" gorm:"not null;index"`
	ResultID     uint      `json:"result_id" gorm:"not null"`
	Title        string    `json:"title" gorm:"not null;size:200"`
	Percentage   float64   `json:"percentage" gorm:"not null"`
	AwardedAt    time.Time `json:"awarded_at" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`

	Assessment *Assessment `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID"`
}

func (Certification) TableName() string {
	return "certifications"
}
