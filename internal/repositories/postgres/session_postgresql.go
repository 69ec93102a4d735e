package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/evalytics-ai/assessment-service/internal/models"
	"github.com/evalytics-ai/assessment-service/internal/repositories"
	"gorm.io/gorm"
)

type SessionPostgreSQL struct {
	db *gorm.DB
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{db: db}
}

func (s SessionPostgreSQL) Create(ctx context.Context, session *models.AssessmentSession) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s SessionPostgreSQL) GetByID(ctx context.Context, id string) (*models.AssessmentSession, error) {
	var session models.AssessmentSession
	if err := s.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (s SessionPostgreSQL) GetByIDWithAssessment(ctx context.Context, id string) (*models.AssessmentSession, error) {
	var session models.AssessmentSession
	if err := s.db.WithContext(ctx).
		Preload("Assessment").
		Preload("Assessment.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Assessment.Questions.TestCases").
		First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (s SessionPostgreSQL) Update(ctx context.Context, session *models.AssessmentSession) error {
	return s.db.WithContext(ctx).Save(session).Error
}

func (s SessionPostgreSQL) GetActiveSession(ctx context.Context, userID, assessmentID uint) (*models.AssessmentSession, error) {
	var session models.AssessmentSession
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND assessment_id = ? AND status = ?", userID, assessmentID, models.SessionInProgress).
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (s SessionPostgreSQL) UpdateAnswers(ctx context.Context, id string, answers, statuses []byte) error {
	return s.db.WithContext(ctx).
		Model(&models.AssessmentSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"answers":  answers,
			"statuses": statuses,
		}).Error
}

// TransitionStatus is the compare-and-set that makes submission idempotent:
// only the caller that flips in_progress to a terminal status gets
// changed=true and may grade.
func (s SessionPostgreSQL) TransitionStatus(ctx context.Context, id string, from, to models.SessionStatus, endReason models.EndReason, at time.Time) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.AssessmentSession{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":       to,
			"end_reason":   endReason,
			"submitted_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s SessionPostgreSQL) ListExpired(ctx context.Context, before time.Time, limit int) ([]*models.AssessmentSession, error) {
	var sessions []*models.AssessmentSession
	query := s.db.WithContext(ctx).
		Where("status = ? AND end_time IS NOT NULL AND end_time <= ?", models.SessionInProgress, before).
		Order("end_time ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s SessionPostgreSQL) AppendFlag(ctx context.Context, flag *models.ProctoringFlag) error {
	return s.db.WithContext(ctx).Create(flag).Error
}

func (s SessionPostgreSQL) GetFlags(ctx context.Context, sessionID string) ([]*models.ProctoringFlag, error) {
	var flags []*models.ProctoringFlag
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("recorded_at ASC").
		Find(&flags).Error; err != nil {
		return nil, err
	}
	return flags, nil
}
