package repositories

import (
	"context"
	"time"

	"github.com/evalytics-ai/assessment-service/internal/models"
)

type SessionRepository interface {
	Create(ctx context.Context, session *models.AssessmentSession) error
	GetByID(ctx context.Context, id string) (*models.AssessmentSession, error)
	GetByIDWithAssessment(ctx context.Context, id string) (*models.AssessmentSession, error)
	Update(ctx context.Context, session *models.AssessmentSession) error

	// GetActiveSession finds an in-progress session for the user and
	// assessment; returns nil, nil when none exists.
	GetActiveSession(ctx context.Context, userID, assessmentID uint) (*models.AssessmentSession, error)

	// UpdateAnswers persists only the answer and status JSON columns.
	UpdateAnswers(ctx context.Context, id string, answers, statuses []byte) error

	// TransitionStatus performs a compare-and-set on the session status. It
	// returns false when the session was not in the expected status, which is
	// how manual submit and the timeout reaper exclude each other.
	TransitionStatus(ctx context.Context, id string, from, to models.SessionStatus, endReason models.EndReason, at time.Time) (bool, error)

	// ListExpired returns in-progress sessions whose deadline passed before
	// the given instant.
	ListExpired(ctx context.Context, before time.Time, limit int) ([]*models.AssessmentSession, error)

	AppendFlag(ctx context.Context, flag *models.ProctoringFlag) error
	GetFlags(ctx context.Context, sessionID string) ([]*models.ProctoringFlag, error)
}
