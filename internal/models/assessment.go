package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AssessmentKind string

const (
	KindExam     AssessmentKind = "exam"
	KindTest     AssessmentKind = "test"
	KindPractice AssessmentKind = "practice"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "mcq"
	Coding         QuestionType = "coding"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "Easy"
	DifficultyMedium DifficultyLevel = "Medium"
	DifficultyHard   DifficultyLevel = "Hard"
)

// DefaultPassCriteria is the percentage threshold applied when an assessment
// does not define its own.
const DefaultPassCriteria = 80

type Assessment struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Title       string         `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string        `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Kind        AssessmentKind `json:"kind" gorm:"not null;index;size:20" validate:"required,assessment_kind"`

	// Duration in minutes; zero for untimed practice sets.
	DurationMinutes int `json:"duration_minutes" gorm:"not null" validate:"min=0,max=300"`

	// Percentage of the maximum score required to pass (and, for tests, to
	// earn a certification).
	PassCriteria int `json:"pass_criteria" gorm:"default:80" validate:"min=0,max=100"`

	Language   string          `json:"language" gorm:"size:50"`
	Difficulty DifficultyLevel `json:"difficulty" gorm:"size:20" validate:"omitempty,difficulty_level"`
	Tags       datatypes.JSON  `json:"tags" gorm:"type:jsonb"` // []string

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions []Question `json:"questions" gorm:"foreignKey:AssessmentID"`

	// Computed (not stored)
	QuestionsCount int `json:"questions_count" gorm:"-"`
}

func (Assessment) TableName() string {
	return "assessments"
}

// EffectivePassCriteria returns the pass threshold, falling back to the
// service-wide default when unset.
func (a *Assessment) EffectivePassCriteria() int {
	if a.PassCriteria <= 0 {
		return DefaultPassCriteria
	}
	return a.PassCriteria
}

type Question struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	AssessmentID uint         `json:"assessment_id" gorm:"not null;index"`
	Position     int          `json:"position" gorm:"not null"`
	Type         QuestionType `json:"question_type" gorm:"not null;size:20" validate:"required,question_type"`
	Text         string       `json:"text" gorm:"type:text;not null" validate:"required"`

	// Multiple choice only
	Options       datatypes.JSON `json:"options,omitempty" gorm:"type:jsonb"` // []string
	CorrectAnswer *string        `json:"-" gorm:"type:text"`

	// Coding only
	StarterCode *string `json:"starter_code,omitempty" gorm:"type:text"`

	Difficulty DifficultyLevel `json:"difficulty" gorm:"size:20"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	TestCases []TestCase `json:"test_cases,omitempty" gorm:"foreignKey:QuestionID"`
}

func (Question) TableName() string {
	return "questions"
}

// VisibleTestCases returns the non-hidden subset used for interactive runs.
func (q *Question) VisibleTestCases() []TestCase {
	visible := make([]TestCase, 0, len(q.TestCases))
	for _, tc := range q.TestCases {
		if !tc.Hidden {
			visible = append(visible, tc)
		}
	}
	return visible
}

// HiddenTestCases returns the hidden subset used for grading.
func (q *Question) HiddenTestCases() []TestCase {
	hidden := make([]TestCase, 0, len(q.TestCases))
	for _, tc := range q.TestCases {
		if tc.Hidden {
			hidden = append(hidden, tc)
		}
	}
	return hidden
}

type TestCase struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	QuestionID     uint   `json:"question_id" gorm:"not null;index"`
	Input          string `json:"input" gorm:"type:text"`
	ExpectedOutput string `json:"output" gorm:"type:text"`
	Hidden         bool   `json:"hidden" gorm:"default:false"`
}

func (TestCase) TableName() string {
	return "test_cases"
}
