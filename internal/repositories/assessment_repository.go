package repositories

import (
	"context"

	"github.com/evalytics-ai/assessment-service/internal/models"
)

type AssessmentRepository interface {
	Create(ctx context.Context, assessment *models.Assessment) error
	GetByID(ctx context.Context, id uint) (*models.Assessment, error)
	// GetByIDWithQuestions preloads questions (ordered by position) and their
	// test cases.
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Assessment, error)
	Update(ctx context.Context, assessment *models.Assessment) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters AssessmentFilters) ([]*models.Assessment, int64, error)

	GetQuestion(ctx context.Context, questionID uint) (*models.Question, error)
	CreateQuestion(ctx context.Context, question *models.Question) error
}
