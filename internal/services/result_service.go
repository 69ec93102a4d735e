package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/evalytics-ai/assessment-service/internal/models"
	"github.com/evalytics-ai/assessment-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

type ResultService interface {
	GetUserResults(ctx context.Context, userID uint, filters repositories.ResultFilters) ([]*models.AssessmentResult, int64, error)
	GetResult(ctx context.Context, userID, resultID uint) (*models.AssessmentResult, error)
	GetCertifications(ctx context.Context, userID uint) ([]*models.Certification, error)
	// ExportAssessmentResults renders every result of an assessment as an
	// xlsx workbook. Admin only.
	ExportAssessmentResults(ctx context.Context, assessmentID uint, actor *models.User) ([]byte, error)
}

type resultService struct {
	results     repositories.ResultRepository
	assessments repositories.AssessmentRepository
	logger      *slog.Logger
}

func NewResultService(results repositories.ResultRepository, assessments repositories.AssessmentRepository, logger *slog.Logger) ResultService {
	return &resultService{
		results:     results,
		assessments: assessments,
		logger:      logger,
	}
}

func (s *resultService) GetUserResults(ctx context.Context, userID uint, filters repositories.ResultFilters) ([]*models.AssessmentResult, int64, error) {
	return s.results.GetByUser(ctx, userID, filters)
}

func (s *resultService) GetResult(ctx context.Context, userID, resultID uint) (*models.AssessmentResult, error) {
	result, err := s.results.GetByID(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrResultNotFound
	}
	if result.UserID != userID {
		return nil, NewPermissionError(userID, "result", "read", "results are private to their owner")
	}
	return result, nil
}

func (s *resultService) GetCertifications(ctx context.Context, userID uint) ([]*models.Certification, error) {
	return s.results.GetCertificationsByUser(ctx, userID)
}

func (s *resultService) ExportAssessmentResults(ctx context.Context, assessmentID uint, actor *models.User) ([]byte, error) {
	if actor == nil || actor.Role != models.RoleAdmin {
		return nil, NewPermissionError(actorID(actor), "results", "export", "admin role required")
	}

	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if assessment == nil {
		return nil, ErrAssessmentNotFound
	}

	results, err := s.results.GetByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"User ID", "Name", "Email", "Score", "Max Score", "Percentage", "Passed", "Graded At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, result := range results {
		name, email := "", ""
		if result.User != nil {
			name = result.User.FirstName + " " + result.User.LastName
			email = result.User.Email
		}
		values := []interface{}{
			result.UserID,
			name,
			email,
			result.Score,
			result.MaxScore,
			result.Percentage,
			result.Passed,
			result.GradedAt.Format(time.RFC3339),
		}
		for colIndex, value := range values {
			cell, _ := excelize.CoordinatesToCellName(colIndex+1, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("exported assessment results",
		"assessment_id", assessmentID,
		"rows", len(results))
	return buf.Bytes(), nil
}
