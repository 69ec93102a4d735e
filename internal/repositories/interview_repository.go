package repositories

import (
	"context"

	"github.com/evalytics-ai/assessment-service/internal/models"
)

type InterviewRepository interface {
	Create(ctx context.Context, interview *models.Interview) error
	GetByID(ctx context.Context, id uint) (*models.Interview, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Interview, error)
	List(ctx context.Context, limit, offset int) ([]*models.Interview, int64, error)

	CreateSession(ctx context.Context, session *models.InterviewSession) error
	GetSession(ctx context.Context, id uint) (*models.InterviewSession, error)
	UpdateSession(ctx context.Context, session *models.InterviewSession) error

	CreateResult(ctx context.Context, result *models.InterviewResult) error
	GetResultsByUser(ctx context.Context, userID uint) ([]*models.InterviewResult, error)
}
