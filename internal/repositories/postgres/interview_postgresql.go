package postgres

import (
	"context"
	"errors"

	"github.com/evalytics-ai/assessment-service/internal/models"
	"github.com/evalytics-ai/assessment-service/internal/repositories"
	"gorm.io/gorm"
)

type InterviewPostgreSQL struct {
	db *gorm.DB
}

func NewInterviewPostgreSQL(db *gorm.DB) repositories.InterviewRepository {
	return &InterviewPostgreSQL{db: db}
}

func (i InterviewPostgreSQL) Create(ctx context.Context, interview *models.Interview) error {
	return i.db.WithContext(ctx).Create(interview).Error
}

func (i InterviewPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Interview, error) {
	var interview models.Interview
	if err := i.db.WithContext(ctx).First(&interview, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &interview, nil
}

func (i InterviewPostgreSQL) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Interview, error) {
	var interview models.Interview
	if err := i.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&interview, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &interview, nil
}

func (i InterviewPostgreSQL) List(ctx context.Context, limit, offset int) ([]*models.Interview, int64, error) {
	var interviews []*models.Interview
	var total int64

	query := i.db.WithContext(ctx).Model(&models.Interview{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&interviews).Error; err != nil {
		return nil, 0, err
	}
	return interviews, total, nil
}

func (i InterviewPostgreSQL) CreateSession(ctx context.Context, session *models.InterviewSession) error {
	return i.db.WithContext(ctx).Create(session).Error
}

func (i InterviewPostgreSQL) GetSession(ctx context.Context, id uint) (*models.InterviewSession, error) {
	var session models.InterviewSession
	if err := i.db.WithContext(ctx).
		Preload("Interview").
		Preload("Interview.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (i InterviewPostgreSQL) UpdateSession(ctx context.Context, session *models.InterviewSession) error {
	return i.db.WithContext(ctx).Save(session).Error
}

func (i InterviewPostgreSQL) CreateResult(ctx context.Context, result *models.InterviewResult) error {
	return i.db.WithContext(ctx).Create(result).Error
}

func (i InterviewPostgreSQL) GetResultsByUser(ctx context.Context, userID uint) ([]*models.InterviewResult, error) {
	var results []*models.InterviewResult
	if err := i.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("graded_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
