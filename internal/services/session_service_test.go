package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/evalytics-ai/assessment-service/internal/events"
	"github.com/evalytics-ai/assessment-service/internal/models"
	"github.com/evalytics-ai/assessment-service/internal/repositories"
	"github.com/evalytics-ai/assessment-service/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func testAssessment() *models.Assessment {
	return &models.Assessment{
		Title:           "Go Fundamentals",
		Kind:            models.KindTest,
		DurationMinutes: 1,
		PassCriteria:    50,
		Language:        "python",
		Questions: []models.Question{
			{
				ID:            10,
				Type:          models.MultipleChoice,
				Text:          "2+2?",
				CorrectAnswer: strPtr("4"),
			},
			{
				ID:   11,
				Type: models.Coding,
				Text: "echo stdin",
				TestCases: []models.TestCase{
					{ID: 1, Input: "a", ExpectedOutput: "a", Hidden: false},
					{ID: 2, Input: "b", ExpectedOutput: "b", Hidden: true},
					{ID: 3, Input: "c", ExpectedOutput: "c", Hidden: true},
				},
			},
		},
	}
}

type sessionFixture struct {
	svc       SessionService
	repos     *memoryRepos
	cache     *fakeSessionCache
	publisher *events.MockEventPublisher
	clock     *fakeClock
	runner    *stubRunner
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repos := newMemoryRepos()
	require.NoError(t, repos.Assessments().Create(context.Background(), testAssessment()))

	clock := &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	sessionCache := newFakeSessionCache()
	publisher := events.NewMockEventPublisher(logger)
	runner := &stubRunner{accept: 2}
	grading := NewGradingService(runner, logger)

	svc := NewSessionService(repos, repos, sessionCache, grading, runner, publisher, logger, clock)
	return &sessionFixture{
		svc:       svc,
		repos:     repos,
		cache:     sessionCache,
		publisher: publisher,
		clock:     clock,
		runner:    runner,
	}
}

func TestStartInitializesSession(t *testing.T) {
	f := newSessionFixture(t)

	resp, err := f.svc.Start(context.Background(), 1, 1)
	require.NoError(t, err)
	require.NotEmpty(t, resp.SessionID)
	assert.Equal(t, 60, resp.TimeLimit)
	assert.Equal(t, 60, resp.RemainingSeconds)
	assert.False(t, resp.Resumed)

	state, err := f.svc.GetState(context.Background(), 1, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionInProgress, state.Status)
	// First question visited, second untouched.
	assert.Equal(t, session.NotAnswered, state.Statuses["10"])
	assert.Equal(t, session.NotVisited, state.Statuses["11"])

	// Hidden cases never leave the service.
	for _, q := range resp.Assessment.Questions {
		for _, tc := range q.TestCases {
			assert.False(t, tc.Hidden)
		}
	}

	// Bootstrap publishes a started event.
	require.Len(t, f.publisher.Events, 1)
	assert.Equal(t, events.EventSessionStarted, f.publisher.Events[0].Type)
}

func TestStartResumesActiveSession(t *testing.T) {
	f := newSessionFixture(t)

	first, err := f.svc.Start(context.Background(), 1, 1)
	require.NoError(t, err)

	f.clock.now = f.clock.now.Add(20 * time.Second)
	second, err := f.svc.Start(context.Background(), 1, 1)
	require.NoError(t, err)

	assert.True(t, second.Resumed)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, 40, second.RemainingSeconds)
}

func TestStartUnknownAssessment(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.svc.Start(context.Background(), 1, 99)
	assert.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestSaveAnswerUpdatesStatuses(t *testing.T) {
	f := newSessionFixture(t)
	resp, err := f.svc.Start(context.Background(), 1, 1)
	require.NoError(t, err)

	err = f.svc.SaveAnswer(context.Background(), 1, resp.SessionID, SaveAnswerRequest{QuestionID: 10, Answer: "4"})
	require.NoError(t, err)

	state, err := f.svc.GetState(context.Background(), 1, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "4", state.Answers["10"])
	assert.Equal(t, session.Answered, state.Statuses["10"])
	assert.Equal(t, 1, state.Summary.Answered)

	// The autosave queue got the job.
	require.Len(t, f.cache.queue, 1)
	assert.Equal(t, "10", f.cache.queue[0].QuestionID)
}

func TestSaveAnswerClearKeepsMark(t *testing.T) {
	f := newSessionFixture(t)
	resp, err := f.svc.Start(context.Background(), 1, 1)
	require.NoError(t, err)

	require.NoError(t, f.svc.SaveAnswer(context.Background(), 1, resp.SessionID,
		SaveAnswerRequest{QuestionID: 10, Answer: "4", Marked: true}))
	require.NoError(t, f.svc.SaveAnswer(context.Background(), 1, resp.SessionID,
		SaveAnswerRequest{QuestionID: 10, Answer: ""}))

	state, err := f.svc.GetState(context.Background(), 1, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.Marked, state.Statuses["10"])
	_, present := state.Answers["10"]
	assert.False(t, present)
}

func TestSaveAnswerRejectsForeignQuestion(t *testing.T) {
	f := newSessionFixture(t)
	resp, err := f.svc.Start(context.Background(), 1, 1)
	require.NoError(t, err)

	err = f.svc.SaveAnswer(context.Background(), 1, resp.SessionID, SaveAnswerRequest{QuestionID: 999, Answer: "x"})
	assert.ErrorIs(t, err, ErrQuestionNotInSession)
}

func TestSaveAnswerRejectsOtherUsersSession(t *testing.T) {
	f := newSessionFixture(t)
	resp, err := f.svc.Start(context.Background(), 1, 1)
	require.NoError(t, err)

	err = f.svc.SaveAnswer(context.Background(), 2, resp.SessionID, SaveAnswerRequest{QuestionID: 10, Answer: "4"})
	assert.ErrorIs(t, err, ErrSessionAccessDenied)
}

func TestIngestProctoringFlagsSuspiciousSamples(t *testing.T) {
	f := newSessionFixture(t)
	resp, err := f.svc.Start(context.Background(), 1, 1)
	require.NoError(t, err)

	// Clean frame: one person, no flag.
	flag, err := f.svc.IngestProctoring(context.Background(), 1, resp.SessionID,
		[]session.Detection{{Class: "person", Score: 0.9}})
	require.NoError(t, err)
	assert.Nil(t, flag)

	// Two empty frames append two flags, no deduplication.
	for i := 0; i < 2; i++ {
		f.clock.now = f.clock.now.Add(8 * time.Second)
		flag, err = f.svc.IngestProctoring(context.Background(), 1, resp.SessionID, nil)
		require.NoError(t, err)
		require.NotNil(t, flag)
		assert.Contains(t, flag.Message, "No person detected.")
	}

	flags, err := f.repos.Sessions().GetFlags(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Len(t, flags, 2)
	assert.NotEqual(t, flags[0].Message, flags[1].Message)
}

func TestIngestProctoringRejectedAfterSubmit(t *testing.T) {
	f := newSessionFixture(t)
	resp, err := f.svc.Start(context.Background(), 1, 1)
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), 1, resp.SessionID, SubmitRequest{}, models.EndReasonManual)
	require.NoError(t, err)

	_, err = f.svc.IngestProctoring(context.Background(), 1, resp.SessionID, nil)
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestRunCodeUsesVisibleCasesOnly(t *testing.T) {
	f := newSessionFixture(t)
	resp, err := f.svc.Start(context.Background(), 1, 1)
	require.NoError(t, err)

	results, err := f.svc.RunCode(context.Background(), 1, resp.SessionID,
		RunCodeRequest{QuestionID: 11, SourceCode: "print(input())"})
	require.NoError(t, err)
	// Question 11 has one visible case out of three.
	assert.Len(t, results, 1)
}

func TestSubmitGradesAndAwardsCertification(t *testing.T) {
	f := newSessionFixture(t)
	resp, err := f.svc.Start(context.Background(), 1, 1)
	require.NoError(t, err)

	result, err := f.svc.Submit(context.Background(), 1, resp.SessionID, SubmitRequest{
		Answers: map[string]string{
			"10": "4",
			"11": "print(input())",
		},
	}, models.EndReasonManual)
	require.NoError(t, err)

	// MCQ correct (1) + coding 2/2 hidden cases (1) = 2/2 -> 100%.
	assert.Equal(t, 2.0, result.Score)
	assert.Equal(t, 100.0, result.Percentage)
	assert.True(t, result.Passed)

	// Passing a certification test awards a certification.
	certs, err := f.repos.Results().GetCertificationsByUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, "Go Fundamentals", certs[0].Title)

	var types []events.EventType
	for _, e := range f.publisher.Events {
		types = append(types, e.Type)
	}
	assert.Contains(t, types, events.EventSessionSubmitted)
	assert.Contains(t, types, events.EventCertificationAwarded)
}

func TestSubmitIsIdempotent(t *testing.T) {
	f := newSessionFixture(t)
	resp, err := f.svc.Start(context.Background(), 1, 1)
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), 1, resp.SessionID, SubmitRequest{}, models.EndReasonManual)
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), 1, resp.SessionID, SubmitRequest{}, models.EndReasonManual)
	assert.ErrorIs(t, err, ErrSessionAlreadySubmitted)

	// Exactly one result despite two submits.
	results, _, err := f.repos.Results().GetByUser(context.Background(), 1, repositories.ResultFilters{})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestHandleTimeoutAutoSubmitsOnce(t *testing.T) {
	f := newSessionFixture(t)
	resp, err := f.svc.Start(context.Background(), 1, 1)
	require.NoError(t, err)

	require.NoError(t, f.svc.SaveAnswer(context.Background(), 1, resp.SessionID,
		SaveAnswerRequest{QuestionID: 10, Answer: "4"}))

	f.clock.now = f.clock.now.Add(2 * time.Minute)
	require.NoError(t, f.svc.HandleTimeout(context.Background(), resp.SessionID))

	sess, err := f.repos.Sessions().GetByID(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionTimedOut, sess.Status)
	assert.Equal(t, models.EndReasonTimeout, sess.EndReason)

	// Autosaved answer was graded.
	result, err := f.repos.Results().GetBySession(context.Background(), resp.SessionID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1.0, result.Score)

	// Running it again is a no-op, not an error.
	require.NoError(t, f.svc.HandleTimeout(context.Background(), resp.SessionID))
}

func TestSaveAnswerRejectedAfterExpiry(t *testing.T) {
	f := newSessionFixture(t)
	resp, err := f.svc.Start(context.Background(), 1, 1)
	require.NoError(t, err)

	f.clock.now = f.clock.now.Add(61 * time.Second)
	err = f.svc.SaveAnswer(context.Background(), 1, resp.SessionID, SaveAnswerRequest{QuestionID: 10, Answer: "4"})
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestIngestProctoringRejectedAfterExpiry(t *testing.T) {
	f := newSessionFixture(t)
	resp, err := f.svc.Start(context.Background(), 1, 1)
	require.NoError(t, err)

	f.clock.now = f.clock.now.Add(61 * time.Second)
	_, err = f.svc.IngestProctoring(context.Background(), 1, resp.SessionID, nil)
	assert.ErrorIs(t, err, ErrSessionExpired)

	// Nothing was written for the rejected sample.
	flags, err := f.repos.Sessions().GetFlags(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Empty(t, flags)
}

func TestVisitPromotesNotVisited(t *testing.T) {
	f := newSessionFixture(t)
	resp, err := f.svc.Start(context.Background(), 1, 1)
	require.NoError(t, err)

	require.NoError(t, f.svc.Visit(context.Background(), 1, resp.SessionID, 11))

	state, err := f.svc.GetState(context.Background(), 1, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.NotAnswered, state.Statuses["11"])
	assert.Equal(t, 0, state.Summary.NotVisited)

	// Visiting again or visiting an answered question changes nothing.
	require.NoError(t, f.svc.SaveAnswer(context.Background(), 1, resp.SessionID,
		SaveAnswerRequest{QuestionID: 10, Answer: "4"}))
	require.NoError(t, f.svc.Visit(context.Background(), 1, resp.SessionID, 10))

	state, err = f.svc.GetState(context.Background(), 1, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.Answered, state.Statuses["10"])

	err = f.svc.Visit(context.Background(), 1, resp.SessionID, 999)
	assert.ErrorIs(t, err, ErrQuestionNotInSession)
}

func TestTimeoutKeepsVisitedStatuses(t *testing.T) {
	f := newSessionFixture(t)
	resp, err := f.svc.Start(context.Background(), 1, 1)
	require.NoError(t, err)

	require.NoError(t, f.svc.SaveAnswer(context.Background(), 1, resp.SessionID,
		SaveAnswerRequest{QuestionID: 10, Answer: "4"}))
	require.NoError(t, f.svc.Visit(context.Background(), 1, resp.SessionID, 11))

	f.clock.now = f.clock.now.Add(2 * time.Minute)
	require.NoError(t, f.svc.HandleTimeout(context.Background(), resp.SessionID))

	// The visit survived the auto-submit: question 11 was seen but left blank.
	state, err := f.svc.GetState(context.Background(), 1, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.Answered, state.Statuses["10"])
	assert.Equal(t, session.NotAnswered, state.Statuses["11"])
}

func TestSubmitRetriesAfterFailedResultWrite(t *testing.T) {
	f := newSessionFixture(t)
	resp, err := f.svc.Start(context.Background(), 1, 1)
	require.NoError(t, err)

	f.repos.failResultCreate = errors.New("connection reset by peer")
	_, err = f.svc.Submit(context.Background(), 1, resp.SessionID, SubmitRequest{
		Answers: map[string]string{"10": "4"},
	}, models.EndReasonManual)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionAlreadySubmitted)

	// The failed write rolled the status back, so the session is still open
	// and holds no result.
	sess, err := f.repos.Sessions().GetByID(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionInProgress, sess.Status)
	stored, err := f.repos.Results().GetBySession(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	// Retrying succeeds and stores exactly one result.
	result, err := f.svc.Submit(context.Background(), 1, resp.SessionID, SubmitRequest{
		Answers: map[string]string{"10": "4"},
	}, models.EndReasonManual)
	require.NoError(t, err)
	require.NotNil(t, result)

	results, _, err := f.repos.Results().GetByUser(context.Background(), 1, repositories.ResultFilters{})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
