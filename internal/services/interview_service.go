package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/evalytics-ai/assessment-service/internal/events"
	"github.com/evalytics-ai/assessment-service/internal/models"
	"github.com/evalytics-ai/assessment-service/internal/repositories"
	"gorm.io/datatypes"
)

// Evaluator scores one interview answer on a 1-5 scale. The default
// implementation is a keyword-overlap heuristic; richer backends (an LLM, a
// human review queue) plug in behind the same interface.
type Evaluator interface {
	Evaluate(ctx context.Context, question models.InterviewQuestion, answer string) (models.AnswerEvaluation, error)
}

type InterviewAnswer struct {
	QuestionID uint   `json:"question_id" validate:"required"`
	Answer     string `json:"answer"`
}

type StartInterviewResponse struct {
	SessionID uint              `json:"session_id"`
	Interview *models.Interview `json:"interview"`
}

type InterviewService interface {
	List(ctx context.Context, limit, offset int) ([]*models.Interview, int64, error)
	Start(ctx context.Context, userID, interviewID uint) (*StartInterviewResponse, error)
	// Submit evaluates every answer, stores the result and closes the
	// session. Idempotent per session.
	Submit(ctx context.Context, userID, sessionID uint, answers []InterviewAnswer) (*models.InterviewResult, error)
	GetUserResults(ctx context.Context, userID uint) ([]*models.InterviewResult, error)
}

type interviewService struct {
	interviews repositories.InterviewRepository
	evaluator  Evaluator
	events     events.EventPublisher
	logger     *slog.Logger
}

func NewInterviewService(interviews repositories.InterviewRepository, evaluator Evaluator, publisher events.EventPublisher, logger *slog.Logger) InterviewService {
	return &interviewService{
		interviews: interviews,
		evaluator:  evaluator,
		events:     publisher,
		logger:     logger,
	}
}

func (s *interviewService) List(ctx context.Context, limit, offset int) ([]*models.Interview, int64, error) {
	return s.interviews.List(ctx, limit, offset)
}

func (s *interviewService) Start(ctx context.Context, userID, interviewID uint) (*StartInterviewResponse, error) {
	interview, err := s.interviews.GetByIDWithQuestions(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if interview == nil {
		return nil, ErrInterviewNotFound
	}

	sess := &models.InterviewSession{
		InterviewID: interviewID,
		UserID:      userID,
		Status:      models.SessionInProgress,
		StartedAt:   time.Now(),
	}
	if err := s.interviews.CreateSession(ctx, sess); err != nil {
		return nil, err
	}

	return &StartInterviewResponse{
		SessionID: sess.ID,
		Interview: interview,
	}, nil
}

func (s *interviewService) Submit(ctx context.Context, userID, sessionID uint, answers []InterviewAnswer) (*models.InterviewResult, error) {
	sess, err := s.interviews.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrInterviewSessionNotFound
	}
	if sess.UserID != userID {
		return nil, NewPermissionError(userID, "interview_session", "submit", "sessions are private to their owner")
	}
	if sess.Status != models.SessionInProgress {
		return nil, ErrSessionAlreadySubmitted
	}
	if sess.Interview == nil {
		return nil, ErrInterviewNotFound
	}

	answerByQuestion := make(map[uint]string, len(answers))
	for _, a := range answers {
		answerByQuestion[a.QuestionID] = a.Answer
	}

	evaluations := make([]models.AnswerEvaluation, 0, len(sess.Interview.Questions))
	var total float64
	for _, q := range sess.Interview.Questions {
		eval, err := s.evaluator.Evaluate(ctx, q, answerByQuestion[q.ID])
		if err != nil {
			return nil, err
		}
		evaluations = append(evaluations, eval)
		total += eval.Score
	}

	var average float64
	if len(evaluations) > 0 {
		average = total / float64(len(evaluations))
	}
	// Normalize the 1-5 scale onto 0-100 so the shared pass threshold
	// applies: 1 maps to 0, 5 maps to 100.
	percentage := math.Round((average-1)/4*100*100) / 100
	if percentage < 0 {
		percentage = 0
	}
	passed := percentage >= float64(sess.Interview.EffectivePassCriteria())

	evalJSON, err := json.Marshal(evaluations)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result := &models.InterviewResult{
		SessionID:    sessionID,
		InterviewID:  sess.InterviewID,
		UserID:       userID,
		AverageScore: math.Round(average*100) / 100,
		Percentage:   percentage,
		Passed:       passed,
		Evaluations:  datatypes.JSON(evalJSON),
		GradedAt:     now,
	}
	if err := s.interviews.CreateResult(ctx, result); err != nil {
		return nil, err
	}

	sess.Status = models.SessionSubmitted
	sess.SubmittedAt = &now
	if err := s.interviews.UpdateSession(ctx, sess); err != nil {
		return nil, err
	}

	if err := s.events.Publish(ctx, events.NewInterviewCompletedEvent(
		sessionID, sess.InterviewID, userID, result.AverageScore, percentage, passed, now)); err != nil {
		s.logger.Warn("failed to publish interview event", "session_id", sessionID, "error", err)
	}

	return result, nil
}

func (s *interviewService) GetUserResults(ctx context.Context, userID uint) ([]*models.InterviewResult, error) {
	return s.interviews.GetResultsByUser(ctx, userID)
}

// ===== DEFAULT EVALUATOR =====

// KeywordEvaluator scores answers by keyword overlap with the expected
// answer. Deliberately simple; it exists so the interview flow works end to
// end without an external model.
type KeywordEvaluator struct{}

func NewKeywordEvaluator() *KeywordEvaluator {
	return &KeywordEvaluator{}
}

func (e *KeywordEvaluator) Evaluate(_ context.Context, question models.InterviewQuestion, answer string) (models.AnswerEvaluation, error) {
	eval := models.AnswerEvaluation{
		QuestionID: question.ID,
		Answer:     answer,
		Category:   question.Category,
		Score:      1,
		Feedback:   "No answer provided.",
	}
	if strings.TrimSpace(answer) == "" {
		return eval, nil
	}

	expected := tokenize(question.ExpectedAnswer)
	if len(expected) == 0 {
		eval.Score = 3
		eval.Feedback = "Answer recorded; no reference answer to compare against."
		return eval, nil
	}

	given := make(map[string]bool)
	for _, w := range tokenize(answer) {
		given[w] = true
	}
	matched := 0
	for _, w := range expected {
		if given[w] {
			matched++
		}
	}
	coverage := float64(matched) / float64(len(expected))

	switch {
	case coverage >= 0.8:
		eval.Score = 5
		eval.Feedback = "Covers the expected points thoroughly."
	case coverage >= 0.6:
		eval.Score = 4
		eval.Feedback = "Covers most of the expected points."
	case coverage >= 0.4:
		eval.Score = 3
		eval.Feedback = "Covers some of the expected points."
	case coverage >= 0.2:
		eval.Score = 2
		eval.Feedback = "Touches on few of the expected points."
	default:
		eval.Score = 1
		eval.Feedback = "Misses the expected points."
	}
	return eval, nil
}

func tokenize(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.Trim(f, ".,;:!?()\"'")
		// Short stop words add noise, not signal.
		if len(w) > 3 {
			words = append(words, w)
		}
	}
	return words
}
