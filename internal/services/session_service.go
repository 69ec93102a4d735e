package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/evalytics-ai/assessment-service/internal/cache"
	"github.com/evalytics-ai/assessment-service/internal/events"
	"github.com/evalytics-ai/assessment-service/internal/judge0"
	"github.com/evalytics-ai/assessment-service/internal/models"
	"github.com/evalytics-ai/assessment-service/internal/repositories"
	"github.com/evalytics-ai/assessment-service/internal/session"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ===== DTOs =====

type StartSessionResponse struct {
	SessionID        string             `json:"session_id"`
	Assessment       *models.Assessment `json:"assessment"`
	TimeLimit        int                `json:"time_limit"` // seconds
	RemainingSeconds int                `json:"remaining_seconds"`
	Resumed          bool               `json:"resumed"`
}

type SessionState struct {
	SessionID        string                            `json:"session_id"`
	Status           models.SessionStatus              `json:"status"`
	RemainingSeconds int                               `json:"remaining_seconds"`
	Answers          map[string]string                 `json:"answers"`
	Statuses         map[string]session.QuestionStatus `json:"statuses"`
	Summary          session.Summary                   `json:"summary"`
}

type SaveAnswerRequest struct {
	QuestionID uint   `json:"question_id" validate:"required"`
	Answer     string `json:"answer"`
	// Marked flags the question for review alongside the save.
	Marked bool `json:"marked"`
}

type VisitRequest struct {
	QuestionID uint `json:"question_id" validate:"required"`
}

type RunCodeRequest struct {
	QuestionID uint   `json:"question_id" validate:"required"`
	SourceCode string `json:"source_code" validate:"required"`
}

type SubmitRequest struct {
	// Answers override the autosaved map; the final client state wins over
	// whatever the autosave worker has persisted so far.
	Answers map[string]string `json:"answers"`
}

// ===== SERVICE =====

// SessionStateCache is the hot-state surface the service needs from redis;
// *cache.SessionCache satisfies it and tests use an in-memory fake.
type SessionStateCache interface {
	SetDeadline(ctx context.Context, sessionID string, endTime time.Time) error
	GetDeadline(ctx context.Context, sessionID string) (time.Time, bool, error)
	SaveAnswer(ctx context.Context, sessionID, questionID, answer string) error
	GetAnswers(ctx context.Context, sessionID string) (map[string]string, error)
	EnqueueAutosave(ctx context.Context, job cache.AutosaveJob) error
	Clear(ctx context.Context, sessionID string) error
}

type SessionService interface {
	// Start creates exactly one in-progress session per user and assessment.
	// Starting while one is active resumes it instead of opening a second.
	Start(ctx context.Context, userID, assessmentID uint) (*StartSessionResponse, error)
	GetState(ctx context.Context, userID uint, sessionID string) (*SessionState, error)
	// Visit records navigation to a question, promoting not-visited to
	// not-answered before any other action can touch it.
	Visit(ctx context.Context, userID uint, sessionID string, questionID uint) error
	SaveAnswer(ctx context.Context, userID uint, sessionID string, req SaveAnswerRequest) error
	IngestProctoring(ctx context.Context, userID uint, sessionID string, detections []session.Detection) (*models.ProctoringFlag, error)
	RunCode(ctx context.Context, userID uint, sessionID string, req RunCodeRequest) ([]judge0.Result, error)
	Submit(ctx context.Context, userID uint, sessionID string, req SubmitRequest, reason models.EndReason) (*models.AssessmentResult, error)
	// HandleTimeout auto-submits an expired session. Called by the reaper;
	// losing the status race with a manual submit is not an error.
	HandleTimeout(ctx context.Context, sessionID string) error
}

type sessionService struct {
	repos   repositories.Repositories
	txm     repositories.TransactionManager
	cache   SessionStateCache
	grading GradingService
	runner  CodeRunner
	events  events.EventPublisher
	logger  *slog.Logger
	clock   session.Clock
}

func NewSessionService(
	repos repositories.Repositories,
	txm repositories.TransactionManager,
	sessionCache SessionStateCache,
	grading GradingService,
	runner CodeRunner,
	publisher events.EventPublisher,
	logger *slog.Logger,
	clock session.Clock,
) SessionService {
	return &sessionService{
		repos:   repos,
		txm:     txm,
		cache:   sessionCache,
		grading: grading,
		runner:  runner,
		events:  publisher,
		logger:  logger,
		clock:   clock,
	}
}

// Start joins the assessment fetch and the active-session lookup
// concurrently; either failing fails the bootstrap as a whole.
func (s *sessionService) Start(ctx context.Context, userID, assessmentID uint) (*StartSessionResponse, error) {
	type fetchResult struct {
		assessment *models.Assessment
		err        error
	}
	type activeResult struct {
		active *models.AssessmentSession
		err    error
	}

	fetchCh := make(chan fetchResult, 1)
	activeCh := make(chan activeResult, 1)

	go func() {
		assessment, err := s.repos.Assessments().GetByIDWithQuestions(ctx, assessmentID)
		fetchCh <- fetchResult{assessment, err}
	}()
	go func() {
		active, err := s.repos.Sessions().GetActiveSession(ctx, userID, assessmentID)
		activeCh <- activeResult{active, err}
	}()

	fetched := <-fetchCh
	existing := <-activeCh
	if fetched.err != nil {
		return nil, fetched.err
	}
	if existing.err != nil {
		return nil, existing.err
	}
	if fetched.assessment == nil {
		return nil, ErrAssessmentNotFound
	}
	assessment := fetched.assessment

	now := s.clock.Now()

	if existing.active != nil {
		if existing.active.Expired(now) {
			// Self-heal: the reaper has not caught it yet.
			if err := s.HandleTimeout(ctx, existing.active.ID); err != nil {
				return nil, err
			}
		} else {
			return s.resume(existing.active, assessment, now)
		}
	}

	timeLimit := assessment.DurationMinutes * 60
	sheet := session.NewSheet(questionIDs(assessment))

	sess := &models.AssessmentSession{
		ID:           uuid.NewString(),
		AssessmentID: assessmentID,
		UserID:       userID,
		Status:       models.SessionInProgress,
		StartedAt:    now,
		TimeLimit:    timeLimit,
	}
	if timeLimit > 0 {
		end := now.Add(time.Duration(timeLimit) * time.Second)
		sess.EndTime = &end
	}
	if err := marshalSheet(sess, sheet); err != nil {
		return nil, err
	}

	if err := s.repos.Sessions().Create(ctx, sess); err != nil {
		return nil, err
	}
	if sess.EndTime != nil {
		if err := s.cache.SetDeadline(ctx, sess.ID, *sess.EndTime); err != nil {
			s.logger.Warn("failed to cache session deadline", "session_id", sess.ID, "error", err)
		}
	}

	if err := s.events.Publish(ctx, events.NewSessionStartedEvent(
		sess.ID, assessmentID, assessment.Title, userID, now, timeLimit)); err != nil {
		s.logger.Warn("failed to publish session started event", "session_id", sess.ID, "error", err)
	}

	stripAnswers(assessment)
	return &StartSessionResponse{
		SessionID:        sess.ID,
		Assessment:       assessment,
		TimeLimit:        timeLimit,
		RemainingSeconds: timeLimit,
	}, nil
}

func (s *sessionService) resume(sess *models.AssessmentSession, assessment *models.Assessment, now time.Time) (*StartSessionResponse, error) {
	stripAnswers(assessment)
	return &StartSessionResponse{
		SessionID:        sess.ID,
		Assessment:       assessment,
		TimeLimit:        sess.TimeLimit,
		RemainingSeconds: sess.RemainingSeconds(now),
		Resumed:          true,
	}, nil
}

func (s *sessionService) GetState(ctx context.Context, userID uint, sessionID string) (*SessionState, error) {
	sess, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	answers, statuses, err := unmarshalSheet(sess)
	if err != nil {
		return nil, err
	}
	// Cached autosaves may be fresher than the persisted row. An empty cached
	// value means the answer was cleared.
	if cached, cerr := s.cache.GetAnswers(ctx, sessionID); cerr == nil {
		for qid, answer := range cached {
			if answer == "" {
				delete(answers, qid)
				continue
			}
			answers[qid] = answer
		}
	}

	remaining := sess.RemainingSeconds(s.clock.Now())
	if deadline, found, cerr := s.cache.GetDeadline(ctx, sessionID); cerr == nil && found {
		remaining = int(deadline.Sub(s.clock.Now()).Seconds())
		if remaining < 0 {
			remaining = 0
		}
	}

	return &SessionState{
		SessionID:        sess.ID,
		Status:           sess.Status,
		RemainingSeconds: remaining,
		Answers:          answers,
		Statuses:         statuses,
		Summary:          session.Summarize(statuses),
	}, nil
}

func (s *sessionService) Visit(ctx context.Context, userID uint, sessionID string, questionID uint) error {
	sess, err := s.activeOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}

	_, statuses, err := unmarshalSheet(sess)
	if err != nil {
		return err
	}
	qid := strconv.FormatUint(uint64(questionID), 10)
	status, known := statuses[qid]
	if !known {
		return ErrQuestionNotInSession
	}

	next := session.Visit(status)
	if next == status {
		return nil
	}
	statuses[qid] = next

	statusesJSON, err := json.Marshal(statuses)
	if err != nil {
		return err
	}
	return s.repos.Sessions().UpdateAnswers(ctx, sessionID, sess.Answers, statusesJSON)
}

func (s *sessionService) SaveAnswer(ctx context.Context, userID uint, sessionID string, req SaveAnswerRequest) error {
	sess, err := s.activeOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}

	answers, statuses, err := unmarshalSheet(sess)
	if err != nil {
		return err
	}
	qid := strconv.FormatUint(uint64(req.QuestionID), 10)
	if _, known := statuses[qid]; !known {
		return ErrQuestionNotInSession
	}

	status := statuses[qid]
	if req.Answer == "" {
		delete(answers, qid)
		status = session.Clear(status)
	} else {
		answers[qid] = req.Answer
		status = session.Answer(status)
	}
	if req.Marked {
		status = session.Mark(status, req.Answer != "")
	}
	statuses[qid] = status

	answersJSON, statusesJSON, err := marshalMaps(answers, statuses)
	if err != nil {
		return err
	}
	if err := s.repos.Sessions().UpdateAnswers(ctx, sessionID, answersJSON, statusesJSON); err != nil {
		return err
	}

	// Hot path for autosave reads plus the queue the worker drains.
	if err := s.cache.SaveAnswer(ctx, sessionID, qid, req.Answer); err != nil {
		s.logger.Warn("failed to cache answer", "session_id", sessionID, "error", err)
	}
	if err := s.cache.EnqueueAutosave(ctx, cache.AutosaveJob{
		SessionID:  sessionID,
		QuestionID: qid,
		Answer:     req.Answer,
	}); err != nil {
		s.logger.Warn("failed to enqueue autosave", "session_id", sessionID, "error", err)
	}
	return nil
}

// IngestProctoring evaluates one detection sample. Samples for sessions that
// are not in progress are rejected; clean samples return nil without writing.
func (s *sessionService) IngestProctoring(ctx context.Context, userID uint, sessionID string, detections []session.Detection) (*models.ProctoringFlag, error) {
	_, err := s.activeOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	flag, flagged := session.Evaluate(detections, s.clock.Now())
	if !flagged {
		return nil, nil
	}

	record := &models.ProctoringFlag{
		SessionID:   sessionID,
		Message:     flag.Message,
		PersonCount: flag.PersonCount,
		RecordedAt:  flag.RecordedAt,
	}
	if err := s.repos.Sessions().AppendFlag(ctx, record); err != nil {
		return nil, err
	}

	if err := s.events.Publish(ctx, events.NewProctoringFlaggedEvent(
		sessionID, userID, flag.Message, flag.PersonCount, flag.RecordedAt)); err != nil {
		s.logger.Warn("failed to publish proctoring event", "session_id", sessionID, "error", err)
	}
	return record, nil
}

// RunCode executes the candidate's code against the question's visible test
// cases only.
func (s *sessionService) RunCode(ctx context.Context, userID uint, sessionID string, req RunCodeRequest) ([]judge0.Result, error) {
	sess, err := s.ownedSessionWithAssessment(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsTerminal() {
		return nil, ErrSessionNotActive
	}

	var question *models.Question
	for i := range sess.Assessment.Questions {
		if sess.Assessment.Questions[i].ID == req.QuestionID {
			question = &sess.Assessment.Questions[i]
			break
		}
	}
	if question == nil || question.Type != models.Coding {
		return nil, ErrQuestionNotInSession
	}

	visible := question.VisibleTestCases()
	submissions := make([]judge0.Submission, len(visible))
	languageID := LanguageID(sess.Assessment.Language)
	for i, tc := range visible {
		submissions[i] = judge0.Submission{
			SourceCode:     req.SourceCode,
			LanguageID:     languageID,
			Stdin:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
		}
	}
	return s.runner.Execute(ctx, submissions), nil
}

func (s *sessionService) Submit(ctx context.Context, userID uint, sessionID string, req SubmitRequest, reason models.EndReason) (*models.AssessmentResult, error) {
	sess, err := s.ownedSessionWithAssessment(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.finalize(ctx, sess, req.Answers, reason)
}

func (s *sessionService) HandleTimeout(ctx context.Context, sessionID string) error {
	sess, err := s.repos.Sessions().GetByIDWithAssessment(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrSessionNotFound
	}
	_, err = s.finalize(ctx, sess, nil, models.EndReasonTimeout)
	if errors.Is(err, ErrSessionAlreadySubmitted) {
		// Manual submit won the race; nothing to do.
		return nil
	}
	return err
}

// finalize is the single terminal path for manual submit, the unload beacon
// and the timeout reaper. The status compare-and-set runs in the same
// transaction as the result insert, so exactly one caller grades and a failed
// insert leaves the session submittable again.
func (s *sessionService) finalize(ctx context.Context, sess *models.AssessmentSession, override map[string]string, reason models.EndReason) (*models.AssessmentResult, error) {
	if sess.Assessment == nil {
		return nil, ErrAssessmentNotFound
	}
	if sess.IsTerminal() {
		return nil, ErrSessionAlreadySubmitted
	}

	target := models.SessionSubmitted
	if reason == models.EndReasonTimeout {
		target = models.SessionTimedOut
	}
	now := s.clock.Now()

	answers, _, err := unmarshalSheet(sess)
	if err != nil {
		return nil, err
	}
	if cached, cerr := s.cache.GetAnswers(ctx, sess.ID); cerr == nil {
		for qid, answer := range cached {
			if answer == "" {
				delete(answers, qid)
				continue
			}
			answers[qid] = answer
		}
	}
	// The submit payload is the client's final word.
	for qid, answer := range override {
		answers[qid] = answer
	}

	outcome, err := s.grading.Grade(ctx, sess.Assessment, answers)
	if err != nil {
		return nil, err
	}

	detailsJSON, err := json.Marshal(outcome.Details)
	if err != nil {
		return nil, err
	}
	result := &models.AssessmentResult{
		SessionID:    sess.ID,
		AssessmentID: sess.AssessmentID,
		UserID:       sess.UserID,
		Score:        outcome.Score,
		MaxScore:     outcome.MaxScore,
		Percentage:   outcome.Percentage,
		Passed:       outcome.Passed,
		Details:      datatypes.JSON(detailsJSON),
		GradedAt:     now,
	}

	var cert *models.Certification
	err = s.txm.WithTransaction(ctx, func(repos repositories.Repositories) error {
		changed, err := repos.Sessions().TransitionStatus(ctx, sess.ID, models.SessionInProgress, target, reason, now)
		if err != nil {
			return err
		}
		if !changed {
			return ErrSessionAlreadySubmitted
		}
		if err := repos.Results().Create(ctx, result); err != nil {
			return err
		}
		if outcome.Passed && sess.Assessment.Kind == models.KindTest {
			cert = &models.Certification{
				UserID:       sess.UserID,
				AssessmentID: sess.AssessmentID,
				ResultID:     result.ID,
				Title:        sess.Assessment.Title,
				Percentage:   outcome.Percentage,
				AwardedAt:    now,
			}
			return repos.Results().CreateCertification(ctx, cert)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.Clear(ctx, sess.ID); err != nil {
		s.logger.Warn("failed to clear session cache", "session_id", sess.ID, "error", err)
	}

	if err := s.events.Publish(ctx, events.NewSessionSubmittedEvent(
		sess.ID, sess.AssessmentID, sess.Assessment.Title, sess.UserID,
		now, string(reason), outcome.Percentage, outcome.Passed)); err != nil {
		s.logger.Warn("failed to publish submit event", "session_id", sess.ID, "error", err)
	}
	if cert != nil {
		if err := s.events.Publish(ctx, events.NewCertificationAwardedEvent(
			cert.ID, cert.UserID, cert.AssessmentID, cert.Title, cert.Percentage, now)); err != nil {
			s.logger.Warn("failed to publish certification event", "session_id", sess.ID, "error", err)
		}
	}

	s.logger.Info("session finalized",
		"session_id", sess.ID,
		"reason", reason,
		"percentage", outcome.Percentage,
		"passed", outcome.Passed)
	return result, nil
}

// ===== HELPERS =====

func (s *sessionService) ownedSession(ctx context.Context, userID uint, sessionID string) (*models.AssessmentSession, error) {
	sess, err := s.repos.Sessions().GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	if sess.UserID != userID {
		return nil, ErrSessionAccessDenied
	}
	return sess, nil
}

// activeOwnedSession is ownedSession plus the in-progress and not-expired
// guards shared by every mutating operation.
func (s *sessionService) activeOwnedSession(ctx context.Context, userID uint, sessionID string) (*models.AssessmentSession, error) {
	sess, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsTerminal() {
		return nil, ErrSessionNotActive
	}
	if sess.Expired(s.clock.Now()) {
		return nil, ErrSessionExpired
	}
	return sess, nil
}

func (s *sessionService) ownedSessionWithAssessment(ctx context.Context, userID uint, sessionID string) (*models.AssessmentSession, error) {
	sess, err := s.repos.Sessions().GetByIDWithAssessment(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	if sess.UserID != userID {
		return nil, ErrSessionAccessDenied
	}
	return sess, nil
}

func questionIDs(assessment *models.Assessment) []uint {
	ids := make([]uint, len(assessment.Questions))
	for i, q := range assessment.Questions {
		ids[i] = q.ID
	}
	return ids
}

// stripAnswers removes grading-only data before an assessment leaves the
// service. CorrectAnswer is already excluded from JSON; hidden cases must be
// filtered here.
func stripAnswers(assessment *models.Assessment) {
	for i := range assessment.Questions {
		assessment.Questions[i].TestCases = assessment.Questions[i].VisibleTestCases()
	}
}

func marshalSheet(sess *models.AssessmentSession, sheet *session.Sheet) error {
	answersJSON, statusesJSON, err := marshalMaps(sheet.Answers, sheet.Statuses)
	if err != nil {
		return err
	}
	sess.Answers = datatypes.JSON(answersJSON)
	sess.Statuses = datatypes.JSON(statusesJSON)
	return nil
}

func marshalMaps(answers map[string]string, statuses map[string]session.QuestionStatus) ([]byte, []byte, error) {
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return nil, nil, err
	}
	statusesJSON, err := json.Marshal(statuses)
	if err != nil {
		return nil, nil, err
	}
	return answersJSON, statusesJSON, nil
}

func unmarshalSheet(sess *models.AssessmentSession) (map[string]string, map[string]session.QuestionStatus, error) {
	answers := make(map[string]string)
	statuses := make(map[string]session.QuestionStatus)
	if len(sess.Answers) > 0 {
		if err := json.Unmarshal(sess.Answers, &answers); err != nil {
			return nil, nil, err
		}
	}
	if len(sess.Statuses) > 0 {
		if err := json.Unmarshal(sess.Statuses, &statuses); err != nil {
			return nil, nil, err
		}
	}
	return answers, statuses, nil
}
