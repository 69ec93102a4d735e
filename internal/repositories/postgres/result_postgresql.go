package postgres

import (
	"context"
	"errors"

	"github.com/evalytics-ai/assessment-service/internal/models"
	"github.com/evalytics-ai/assessment-service/internal/repositories"
	"gorm.io/gorm"
)

type ResultPostgreSQL struct {
	db *gorm.DB
}

func NewResultPostgreSQL(db *gorm.DB) repositories.ResultRepository {
	return &ResultPostgreSQL{db: db}
}

func (r ResultPostgreSQL) Create(ctx context.Context, result *models.AssessmentResult) error {
	return r.db.WithContext(ctx).Create(result).Error
}

func (r ResultPostgreSQL) GetByID(ctx context.Context, id uint) (*models.AssessmentResult, error) {
	var result models.AssessmentResult
	if err := r.db.WithContext(ctx).
		Preload("Assessment").
		First(&result, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r ResultPostgreSQL) GetBySession(ctx context.Context, sessionID string) (*models.AssessmentResult, error) {
	var result models.AssessmentResult
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r ResultPostgreSQL) GetByUser(ctx context.Context, userID uint, filters repositories.ResultFilters) ([]*models.AssessmentResult, int64, error) {
	var results []*models.AssessmentResult
	var total int64

	query := r.db.WithContext(ctx).Model(&models.AssessmentResult{}).Where("user_id = ?", userID)
	if filters.AssessmentID != nil {
		query = query.Where("assessment_id = ?", *filters.AssessmentID)
	}
	if filters.Passed != nil {
		query = query.Where("passed = ?", *filters.Passed)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("graded_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Preload("Assessment").Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r ResultPostgreSQL) GetByAssessment(ctx context.Context, assessmentID uint) ([]*models.AssessmentResult, error) {
	var results []*models.AssessmentResult
	if err := r.db.WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Order("graded_at DESC").
		Preload("User").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r ResultPostgreSQL) GetStats(ctx context.Context, assessmentID uint) (*repositories.AssessmentStats, error) {
	var stats repositories.AssessmentStats

	row := r.db.WithContext(ctx).
		Model(&models.AssessmentResult{}).
		Select("COUNT(*) AS completed, COALESCE(AVG(percentage), 0) AS avg_score, COALESCE(AVG(CASE WHEN passed THEN 1.0 ELSE 0.0 END) * 100, 0) AS pass_rate").
		Where("assessment_id = ?", assessmentID).
		Row()
	if err := row.Scan(&stats.CompletedSessions, &stats.AverageScore, &stats.PassRate); err != nil {
		return nil, err
	}

	var totalSessions int64
	if err := r.db.WithContext(ctx).
		Model(&models.AssessmentSession{}).
		Where("assessment_id = ?", assessmentID).
		Count(&totalSessions).Error; err != nil {
		return nil, err
	}
	stats.TotalSessions = int(totalSessions)

	var questionCount int64
	if err := r.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("assessment_id = ?", assessmentID).
		Count(&questionCount).Error; err != nil {
		return nil, err
	}
	stats.QuestionCount = int(questionCount)

	return &stats, nil
}

func (r ResultPostgreSQL) CreateCertification(ctx context.Context, cert *models.Certification) error {
	return r.db.WithContext(ctx).Create(cert).Error
}

func (r ResultPostgreSQL) GetCertificationsByUser(ctx context.Context, userID uint) ([]*models.Certification, error) {
	var certs []*models.Certification
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("awarded_at DESC").
		Preload("Assessment").
		Find(&certs).Error; err != nil {
		return nil, err
	}
	return certs, nil
}
