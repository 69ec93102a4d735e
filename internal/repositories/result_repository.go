package repositories

import (
	"context"

	"github.com/evalytics-ai/assessment-service/internal/models"
)

type ResultRepository interface {
	Create(ctx context.Context, result *models.AssessmentResult) error
	GetByID(ctx context.Context, id uint) (*models.AssessmentResult, error)
	GetBySession(ctx context.Context, sessionID string) (*models.AssessmentResult, error)
	GetByUser(ctx context.Context, userID uint, filters ResultFilters) ([]*models.AssessmentResult, int64, error)
	// GetByAssessment returns every result for one assessment with users
	// preloaded, for exports and stats.
	GetByAssessment(ctx context.Context, assessmentID uint) ([]*models.AssessmentResult, error)
	GetStats(ctx context.Context, assessmentID uint) (*AssessmentStats, error)

	CreateCertification(ctx context.Context, cert *models.Certification) error
	GetCertificationsByUser(ctx context.Context, userID uint) ([]*models.Certification, error)
}
