package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/evalytics-ai/assessment-service/internal/models"
	"github.com/evalytics-ai/assessment-service/internal/repositories"
	"gorm.io/gorm"
)

type AssessmentPostgreSQL struct {
	db *gorm.DB
}

func NewAssessmentPostgreSQL(db *gorm.DB) repositories.AssessmentRepository {
	return &AssessmentPostgreSQL{db: db}
}

func (a AssessmentPostgreSQL) Create(ctx context.Context, assessment *models.Assessment) error {
	return a.db.WithContext(ctx).Create(assessment).Error
}

func (a AssessmentPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Assessment, error) {
	var assessment models.Assessment
	if err := a.db.WithContext(ctx).First(&assessment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &assessment, nil
}

func (a AssessmentPostgreSQL) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Assessment, error) {
	var assessment models.Assessment
	if err := a.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Questions.TestCases").
		First(&assessment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	assessment.QuestionsCount = len(assessment.Questions)
	return &assessment, nil
}

func (a AssessmentPostgreSQL) Update(ctx context.Context, assessment *models.Assessment) error {
	return a.db.WithContext(ctx).Save(assessment).Error
}

func (a AssessmentPostgreSQL) Delete(ctx context.Context, id uint) error {
	return a.db.WithContext(ctx).Delete(&models.Assessment{}, id).Error
}

func (a AssessmentPostgreSQL) List(ctx context.Context, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	var assessments []*models.Assessment
	var total int64

	query := a.db.WithContext(ctx).Model(&models.Assessment{})
	query = a.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = a.applyPaginationAndSort(query, filters)
	if err := query.Find(&assessments).Error; err != nil {
		return nil, 0, err
	}

	return assessments, total, nil
}

func (a AssessmentPostgreSQL) GetQuestion(ctx context.Context, questionID uint) (*models.Question, error) {
	var question models.Question
	if err := a.db.WithContext(ctx).
		Preload("TestCases").
		First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &question, nil
}

func (a AssessmentPostgreSQL) CreateQuestion(ctx context.Context, question *models.Question) error {
	return a.db.WithContext(ctx).Create(question).Error
}

func (a AssessmentPostgreSQL) applyFilters(query *gorm.DB, filters repositories.AssessmentFilters) *gorm.DB {
	if filters.Kind != nil {
		query = query.Where("kind = ?", *filters.Kind)
	}
	if filters.Difficulty != nil {
		query = query.Where("difficulty = ?", *filters.Difficulty)
	}
	if filters.Language != nil {
		query = query.Where("language = ?", *filters.Language)
	}
	return query
}

func (a AssessmentPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.AssessmentFilters) *gorm.DB {
	sortBy := filters.SortBy
	switch sortBy {
	case "title", "created_at":
	default:
		sortBy = "created_at"
	}
	sortOrder := filters.SortOrder
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder))

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
