package workers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/evalytics-ai/assessment-service/internal/cache"
	"github.com/evalytics-ai/assessment-service/internal/models"
	"github.com/evalytics-ai/assessment-service/internal/session"
	"github.com/evalytics-ai/assessment-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func autosaveJob(sessionID, questionID, answer string) cache.AutosaveJob {
	return cache.AutosaveJob{SessionID: sessionID, QuestionID: questionID, Answer: answer}
}

type stubSessionRepo struct {
	sessions map[string]*models.AssessmentSession
	expired  []*models.AssessmentSession

	updatedAnswers  map[string][]byte
	updatedStatuses map[string][]byte
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{
		sessions:        make(map[string]*models.AssessmentSession),
		updatedAnswers:  make(map[string][]byte),
		updatedStatuses: make(map[string][]byte),
	}
}

func (r *stubSessionRepo) Create(_ context.Context, s *models.AssessmentSession) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *stubSessionRepo) GetByID(_ context.Context, id string) (*models.AssessmentSession, error) {
	return r.sessions[id], nil
}

func (r *stubSessionRepo) GetByIDWithAssessment(_ context.Context, id string) (*models.AssessmentSession, error) {
	return r.sessions[id], nil
}

func (r *stubSessionRepo) Update(_ context.Context, s *models.AssessmentSession) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *stubSessionRepo) GetActiveSession(_ context.Context, _, _ uint) (*models.AssessmentSession, error) {
	return nil, nil
}

func (r *stubSessionRepo) UpdateAnswers(_ context.Context, id string, answers, statuses []byte) error {
	r.updatedAnswers[id] = answers
	r.updatedStatuses[id] = statuses
	return nil
}

func (r *stubSessionRepo) TransitionStatus(_ context.Context, id string, from, to models.SessionStatus, reason models.EndReason, at time.Time) (bool, error) {
	s, ok := r.sessions[id]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status = to
	s.EndReason = reason
	s.SubmittedAt = &at
	return true, nil
}

func (r *stubSessionRepo) ListExpired(_ context.Context, _ time.Time, _ int) ([]*models.AssessmentSession, error) {
	return r.expired, nil
}

func (r *stubSessionRepo) AppendFlag(_ context.Context, _ *models.ProctoringFlag) error { return nil }

func (r *stubSessionRepo) GetFlags(_ context.Context, _ string) ([]*models.ProctoringFlag, error) {
	return nil, nil
}

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAutosavePersistSavesAnswerAndStatus(t *testing.T) {
	repo := newStubSessionRepo()
	repo.sessions["s1"] = &models.AssessmentSession{
		ID:       "s1",
		Status:   models.SessionInProgress,
		Answers:  []byte(`{}`),
		Statuses: []byte(`{"10":"notAnswered"}`),
	}

	w := NewAutosaveWorker(nil, repo, testLogger())
	err := w.persist(context.Background(), autosaveJob("s1", "10", "b"))
	require.NoError(t, err)

	var answers map[string]string
	require.NoError(t, json.Unmarshal(repo.updatedAnswers["s1"], &answers))
	assert.Equal(t, "b", answers["10"])

	var statuses map[string]session.QuestionStatus
	require.NoError(t, json.Unmarshal(repo.updatedStatuses["s1"], &statuses))
	assert.Equal(t, session.Answered, statuses["10"])
}

func TestAutosavePersistClearRemovesAnswer(t *testing.T) {
	repo := newStubSessionRepo()
	repo.sessions["s1"] = &models.AssessmentSession{
		ID:       "s1",
		Status:   models.SessionInProgress,
		Answers:  []byte(`{"10":"b"}`),
		Statuses: []byte(`{"10":"answered"}`),
	}

	w := NewAutosaveWorker(nil, repo, testLogger())
	err := w.persist(context.Background(), autosaveJob("s1", "10", ""))
	require.NoError(t, err)

	var answers map[string]string
	require.NoError(t, json.Unmarshal(repo.updatedAnswers["s1"], &answers))
	_, ok := answers["10"]
	assert.False(t, ok)

	var statuses map[string]session.QuestionStatus
	require.NoError(t, json.Unmarshal(repo.updatedStatuses["s1"], &statuses))
	assert.Equal(t, session.NotAnswered, statuses["10"])
}

func TestAutosavePersistSkipsTerminalSession(t *testing.T) {
	repo := newStubSessionRepo()
	repo.sessions["s1"] = &models.AssessmentSession{
		ID:     "s1",
		Status: models.SessionSubmitted,
	}

	w := NewAutosaveWorker(nil, repo, testLogger())
	err := w.persist(context.Background(), autosaveJob("s1", "10", "b"))
	require.NoError(t, err)
	assert.Empty(t, repo.updatedAnswers)
}

func TestAutosavePersistIgnoresUnknownSession(t *testing.T) {
	repo := newStubSessionRepo()
	w := NewAutosaveWorker(nil, repo, testLogger())
	err := w.persist(context.Background(), autosaveJob("missing", "10", "b"))
	require.NoError(t, err)
	assert.Empty(t, repo.updatedAnswers)
}

type recordingTimeoutService struct {
	timedOut []string
}

func (s *recordingTimeoutService) HandleTimeout(_ context.Context, sessionID string) error {
	s.timedOut = append(s.timedOut, sessionID)
	return nil
}

func TestReaperSweepTimesOutEveryExpiredSession(t *testing.T) {
	repo := newStubSessionRepo()
	repo.expired = []*models.AssessmentSession{
		{ID: "s1", Status: models.SessionInProgress},
		{ID: "s2", Status: models.SessionInProgress},
	}
	svc := &recordingTimeoutService{}

	w := NewReaperWorker(repo, svc, session.RealClock(), testLogger())
	w.sweep(context.Background())

	assert.Equal(t, []string{"s1", "s2"}, svc.timedOut)
}
