package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/evalytics-ai/assessment-service/internal/cache"
	"github.com/evalytics-ai/assessment-service/internal/models"
	"github.com/evalytics-ai/assessment-service/internal/repositories"
	"github.com/evalytics-ai/assessment-service/internal/validator"
)

const assessmentCacheTTL = 5 * time.Minute

type AssessmentService interface {
	List(ctx context.Context, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error)
	// Get returns the assessment with its ordered questions. Correct answers
	// and hidden test cases are stripped from what the model serializes, so
	// the handler can return this directly.
	Get(ctx context.Context, id uint) (*models.Assessment, error)
	Create(ctx context.Context, assessment *models.Assessment, actor *models.User) (*models.Assessment, error)
	GetStats(ctx context.Context, id uint) (*repositories.AssessmentStats, error)
}

type assessmentService struct {
	assessments repositories.AssessmentRepository
	results     repositories.ResultRepository
	cache       cache.CacheService
	logger      *slog.Logger
	validator   *validator.Validator
}

func NewAssessmentService(assessments repositories.AssessmentRepository, results repositories.ResultRepository, cacheService cache.CacheService, logger *slog.Logger, v *validator.Validator) AssessmentService {
	return &assessmentService{
		assessments: assessments,
		results:     results,
		cache:       cacheService,
		logger:      logger,
		validator:   v,
	}
}

func (s *assessmentService) List(ctx context.Context, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	return s.assessments.List(ctx, filters)
}

func (s *assessmentService) Get(ctx context.Context, id uint) (*models.Assessment, error) {
	cacheKey := fmt.Sprintf("assessment:%d", id)
	if s.cache != nil {
		var cached models.Assessment
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	assessment, err := s.assessments.GetByIDWithQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	if assessment == nil {
		return nil, ErrAssessmentNotFound
	}
	// Candidates only ever see non-hidden cases.
	for i := range assessment.Questions {
		assessment.Questions[i].TestCases = assessment.Questions[i].VisibleTestCases()
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, assessment, assessmentCacheTTL); err != nil {
			s.logger.Warn("assessment cache set failed", "assessment_id", id, "error", err)
		}
	}
	return assessment, nil
}

func (s *assessmentService) Create(ctx context.Context, assessment *models.Assessment, actor *models.User) (*models.Assessment, error) {
	if actor == nil || actor.Role != models.RoleAdmin {
		return nil, NewPermissionError(actorID(actor), "assessment", "create", "admin role required")
	}
	if err := s.validator.Validate(assessment); err != nil {
		return nil, err
	}
	for i := range assessment.Questions {
		assessment.Questions[i].Position = i
		if err := s.validator.Validate(&assessment.Questions[i]); err != nil {
			return nil, err
		}
	}
	if err := s.assessments.Create(ctx, assessment); err != nil {
		return nil, err
	}
	s.logger.Info("assessment created",
		"assessment_id", assessment.ID,
		"kind", assessment.Kind,
		"questions", len(assessment.Questions))
	return assessment, nil
}

func (s *assessmentService) GetStats(ctx context.Context, id uint) (*repositories.AssessmentStats, error) {
	assessment, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if assessment == nil {
		return nil, ErrAssessmentNotFound
	}
	return s.results.GetStats(ctx, id)
}

func actorID(actor *models.User) uint {
	if actor == nil {
		return 0
	}
	return actor.ID
}
