package services

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/evalytics-ai/assessment-service/internal/judge0"
	"github.com/evalytics-ai/assessment-service/internal/models"
)

// CodeRunner is the slice of the Judge0 client grading needs; tests swap in
// a stub.
type CodeRunner interface {
	Execute(ctx context.Context, submissions []judge0.Submission) []judge0.Result
}

// GradeOutcome is the computed result of one submission before persistence.
type GradeOutcome struct {
	Score      float64
	MaxScore   float64
	Percentage float64
	Passed     bool
	Details    []models.QuestionResult
}

type GradingService interface {
	// Grade scores every question of the assessment against the answer map
	// (keyed by question id as a string). Each question is worth one point:
	// exact match for multiple choice, accepted/total graded cases for coding.
	Grade(ctx context.Context, assessment *models.Assessment, answers map[string]string) (*GradeOutcome, error)
}

type gradingService struct {
	runner CodeRunner
	logger *slog.Logger
}

func NewGradingService(runner CodeRunner, logger *slog.Logger) GradingService {
	return &gradingService{
		runner: runner,
		logger: logger,
	}
}

func (s *gradingService) Grade(ctx context.Context, assessment *models.Assessment, answers map[string]string) (*GradeOutcome, error) {
	outcome := &GradeOutcome{
		MaxScore: float64(len(assessment.Questions)),
		Details:  make([]models.QuestionResult, 0, len(assessment.Questions)),
	}

	for _, q := range assessment.Questions {
		answer := answers[strconv.FormatUint(uint64(q.ID), 10)]

		var qr models.QuestionResult
		switch q.Type {
		case models.Coding:
			qr = s.gradeCoding(ctx, q, answer, LanguageID(assessment.Language))
		default:
			qr = gradeChoice(q, answer)
		}
		outcome.Score += qr.Points
		outcome.Details = append(outcome.Details, qr)
	}

	if outcome.MaxScore > 0 {
		outcome.Percentage = math.Round(outcome.Score/outcome.MaxScore*100*100) / 100
	}
	outcome.Passed = outcome.Percentage >= float64(assessment.EffectivePassCriteria())
	return outcome, nil
}

func gradeChoice(q models.Question, answer string) models.QuestionResult {
	qr := models.QuestionResult{
		QuestionID: q.ID,
		Type:       q.Type,
		Answer:     answer,
	}
	if q.CorrectAnswer != nil && answer != "" && answer == *q.CorrectAnswer {
		qr.Correct = true
		qr.Points = 1
	}
	return qr
}

// gradeCoding runs the answer against the question's graded cases and awards
// fractional credit: accepted divided by total. Hidden cases are the graded
// set; questions without hidden cases are graded on all their cases.
func (s *gradingService) gradeCoding(ctx context.Context, q models.Question, answer string, languageID int) models.QuestionResult {
	qr := models.QuestionResult{
		QuestionID: q.ID,
		Type:       q.Type,
		Answer:     answer,
	}

	cases := q.HiddenTestCases()
	if len(cases) == 0 {
		cases = q.TestCases
	}
	qr.CasesTotal = len(cases)
	if answer == "" || len(cases) == 0 {
		return qr
	}

	submissions := make([]judge0.Submission, len(cases))
	for i, tc := range cases {
		submissions[i] = judge0.Submission{
			SourceCode:     answer,
			LanguageID:     languageID,
			Stdin:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
		}
	}

	results := s.runner.Execute(ctx, submissions)
	for _, r := range results {
		if r.Accepted() {
			qr.CasesPassed++
		}
	}

	if qr.CasesPassed > 0 {
		qr.Points = math.Round(float64(qr.CasesPassed)/float64(qr.CasesTotal)*100) / 100
	}
	qr.Correct = qr.CasesPassed == qr.CasesTotal
	return qr
}

// languageMap mirrors the Judge0 CE language ids for the languages the
// catalog offers.
var languageMap = map[string]int{
	"python":     71,
	"javascript": 63,
	"java":       62,
	"c":          50,
	"cpp":        54,
	"c++":        54,
	"go":         60,
}

const defaultLanguageID = 71 // python

// LanguageID resolves a catalog language name to its Judge0 id.
func LanguageID(language string) int {
	if id, ok := languageMap[strings.ToLower(language)]; ok {
		return id
	}
	return defaultLanguageID
}
