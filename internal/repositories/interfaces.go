package repositories

import (
	"context"

	"github.com/evalytics-ai/assessment-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type AssessmentFilters struct {
	Kind       *models.AssessmentKind  `json:"kind"`
	Difficulty *models.DifficultyLevel `json:"difficulty"`
	Language   *string                 `json:"language"`
	Limit      int                     `json:"limit"`
	Offset     int                     `json:"offset"`
	SortBy     string                  `json:"sort_by"`    // "created_at", "title"
	SortOrder  string                  `json:"sort_order"` // "asc", "desc"
}

type ResultFilters struct {
	AssessmentID *uint `json:"assessment_id"`
	Passed       *bool `json:"passed"`
	Limit        int   `json:"limit"`
	Offset       int   `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type AssessmentStats struct {
	TotalSessions     int     `json:"total_sessions"`
	CompletedSessions int     `json:"completed_sessions"`
	AverageScore      float64 `json:"average_score"`
	PassRate          float64 `json:"pass_rate"`
	QuestionCount     int     `json:"question_count"`
}

// ===== TRANSACTION MANAGER =====

// Transaction groups repository writes into one database transaction. The
// callback's repositories operate on the transactional connection.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories bundles every repository behind one accessor, mirroring what
// the transaction manager hands to callbacks.
type Repositories interface {
	Assessments() AssessmentRepository
	Sessions() SessionRepository
	Results() ResultRepository
	Users() UserRepository
	Interviews() InterviewRepository
}
