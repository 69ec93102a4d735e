package services

import (
	"context"
	"sync"
	"time"

	"github.com/evalytics-ai/assessment-service/internal/cache"
	"github.com/evalytics-ai/assessment-service/internal/judge0"
	"github.com/evalytics-ai/assessment-service/internal/models"
	"github.com/evalytics-ai/assessment-service/internal/repositories"
	"github.com/evalytics-ai/assessment-service/internal/session"
)

// ===== FAKE CLOCK =====

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) NewTicker(time.Duration) session.Ticker {
	panic("not used in service tests")
}

// ===== IN-MEMORY REPOSITORIES =====

type memoryRepos struct {
	mu          sync.Mutex
	assessments map[uint]*models.Assessment
	sessions    map[string]*models.AssessmentSession
	flags       []*models.ProctoringFlag
	results     map[uint]*models.AssessmentResult
	certs       []*models.Certification
	users       map[uint]*models.User
	nextID      uint

	// failResultCreate makes the next result insert fail once, for exercising
	// transactional rollback paths.
	failResultCreate error
}

func newMemoryRepos() *memoryRepos {
	return &memoryRepos{
		assessments: make(map[uint]*models.Assessment),
		sessions:    make(map[string]*models.AssessmentSession),
		results:     make(map[uint]*models.AssessmentResult),
		users:       make(map[uint]*models.User),
		nextID:      1,
	}
}

func (m *memoryRepos) Assessments() repositories.AssessmentRepository { return (*memAssessments)(m) }
func (m *memoryRepos) Sessions() repositories.SessionRepository      { return (*memSessions)(m) }
func (m *memoryRepos) Results() repositories.ResultRepository        { return (*memResults)(m) }
func (m *memoryRepos) Users() repositories.UserRepository            { return (*memUsers)(m) }
func (m *memoryRepos) Interviews() repositories.InterviewRepository  { return nil }

// WithTransaction snapshots the mutable tables and restores them when fn
// errors, mirroring a database rollback.
func (m *memoryRepos) WithTransaction(ctx context.Context, fn func(repos repositories.Repositories) error) error {
	m.mu.Lock()
	snapSessions := make(map[string]*models.AssessmentSession, len(m.sessions))
	for id, s := range m.sessions {
		cp := *s
		snapSessions[id] = &cp
	}
	snapResults := make(map[uint]*models.AssessmentResult, len(m.results))
	for id, r := range m.results {
		cp := *r
		snapResults[id] = &cp
	}
	snapCerts := append([]*models.Certification(nil), m.certs...)
	snapNextID := m.nextID
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.sessions = snapSessions
		m.results = snapResults
		m.certs = snapCerts
		m.nextID = snapNextID
		m.mu.Unlock()
		return err
	}
	return nil
}

// ----- assessments -----

type memAssessments memoryRepos

func (m *memAssessments) Create(_ context.Context, a *models.Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.nextID
	m.nextID++
	m.assessments[a.ID] = a
	return nil
}

func (m *memAssessments) GetByID(_ context.Context, id uint) (*models.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.assessments[id], nil
}

// GetByIDWithQuestions returns a copy, like a real query would, so callers
// stripping hidden cases do not corrupt the stored definition.
func (m *memAssessments) GetByIDWithQuestions(_ context.Context, id uint) (*models.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assessments[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	cp.Questions = make([]models.Question, len(a.Questions))
	copy(cp.Questions, a.Questions)
	return &cp, nil
}

func (m *memAssessments) Update(_ context.Context, a *models.Assessment) error { return nil }
func (m *memAssessments) Delete(_ context.Context, id uint) error              { return nil }

func (m *memAssessments) List(_ context.Context, _ repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Assessment, 0, len(m.assessments))
	for _, a := range m.assessments {
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (m *memAssessments) GetQuestion(_ context.Context, id uint) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assessments {
		for i := range a.Questions {
			if a.Questions[i].ID == id {
				return &a.Questions[i], nil
			}
		}
	}
	return nil, nil
}

func (m *memAssessments) CreateQuestion(_ context.Context, q *models.Question) error { return nil }

// ----- sessions -----

type memSessions memoryRepos

func (m *memSessions) Create(_ context.Context, s *models.AssessmentSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memSessions) GetByID(_ context.Context, id string) (*models.AssessmentSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) GetByIDWithAssessment(ctx context.Context, id string) (*models.AssessmentSession, error) {
	s, err := m.GetByID(ctx, id)
	if s == nil || err != nil {
		return s, err
	}
	s.Assessment, err = (*memAssessments)(m).GetByIDWithQuestions(ctx, s.AssessmentID)
	return s, err
}

func (m *memSessions) Update(_ context.Context, s *models.AssessmentSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memSessions) GetActiveSession(_ context.Context, userID, assessmentID uint) (*models.AssessmentSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.UserID == userID && s.AssessmentID == assessmentID && s.Status == models.SessionInProgress {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memSessions) UpdateAnswers(_ context.Context, id string, answers, statuses []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.Answers = answers
	s.Statuses = statuses
	return nil
}

func (m *memSessions) TransitionStatus(_ context.Context, id string, from, to models.SessionStatus, endReason models.EndReason, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status = to
	s.EndReason = endReason
	s.SubmittedAt = &at
	return true, nil
}

func (m *memSessions) ListExpired(_ context.Context, before time.Time, limit int) ([]*models.AssessmentSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AssessmentSession
	for _, s := range m.sessions {
		if s.Status == models.SessionInProgress && s.EndTime != nil && !s.EndTime.After(before) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSessions) AppendFlag(_ context.Context, flag *models.ProctoringFlag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	flag.ID = m.nextID
	m.nextID++
	m.flags = append(m.flags, flag)
	return nil
}

func (m *memSessions) GetFlags(_ context.Context, sessionID string) ([]*models.ProctoringFlag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ProctoringFlag
	for _, f := range m.flags {
		if f.SessionID == sessionID {
			out = append(out, f)
		}
	}
	return out, nil
}

// ----- results -----

type memResults memoryRepos

func (m *memResults) Create(_ context.Context, r *models.AssessmentResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failResultCreate; err != nil {
		m.failResultCreate = nil
		return err
	}
	r.ID = m.nextID
	m.nextID++
	m.results[r.ID] = r
	return nil
}

func (m *memResults) GetByID(_ context.Context, id uint) (*models.AssessmentResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.results[id], nil
}

func (m *memResults) GetBySession(_ context.Context, sessionID string) (*models.AssessmentResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.results {
		if r.SessionID == sessionID {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memResults) GetByUser(_ context.Context, userID uint, _ repositories.ResultFilters) ([]*models.AssessmentResult, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AssessmentResult
	for _, r := range m.results {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memResults) GetByAssessment(_ context.Context, assessmentID uint) ([]*models.AssessmentResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AssessmentResult
	for _, r := range m.results {
		if r.AssessmentID == assessmentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memResults) GetStats(_ context.Context, _ uint) (*repositories.AssessmentStats, error) {
	return &repositories.AssessmentStats{}, nil
}

func (m *memResults) CreateCertification(_ context.Context, c *models.Certification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.nextID
	m.nextID++
	m.certs = append(m.certs, c)
	return nil
}

func (m *memResults) GetCertificationsByUser(_ context.Context, userID uint) ([]*models.Certification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Certification
	for _, c := range m.certs {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

// ----- users -----

type memUsers memoryRepos

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) Update(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

// ===== FAKE SESSION CACHE =====

type fakeSessionCache struct {
	mu        sync.Mutex
	deadlines map[string]time.Time
	answers   map[string]map[string]string
	queue     []cache.AutosaveJob
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{
		deadlines: make(map[string]time.Time),
		answers:   make(map[string]map[string]string),
	}
}

func (f *fakeSessionCache) SetDeadline(_ context.Context, sessionID string, endTime time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deadlines[sessionID] = endTime
	return nil
}

func (f *fakeSessionCache) GetDeadline(_ context.Context, sessionID string) (time.Time, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.deadlines[sessionID]
	return t, ok, nil
}

func (f *fakeSessionCache) SaveAnswer(_ context.Context, sessionID, questionID, answer string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.answers[sessionID] == nil {
		f.answers[sessionID] = make(map[string]string)
	}
	f.answers[sessionID][questionID] = answer
	return nil
}

func (f *fakeSessionCache) GetAnswers(_ context.Context, sessionID string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string)
	for k, v := range f.answers[sessionID] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeSessionCache) EnqueueAutosave(_ context.Context, job cache.AutosaveJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, job)
	return nil
}

func (f *fakeSessionCache) Clear(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.deadlines, sessionID)
	delete(f.answers, sessionID)
	return nil
}

// ===== STUB CODE RUNNER =====

// stubRunner returns a scripted number of accepted results per call.
type stubRunner struct {
	accept int // how many of the submitted cases pass
}

func (r *stubRunner) Execute(_ context.Context, submissions []judge0.Submission) []judge0.Result {
	results := make([]judge0.Result, len(submissions))
	for i := range submissions {
		if i < r.accept {
			results[i] = judge0.Result{Status: judge0.Status{ID: 3, Description: "Accepted"}}
		} else {
			results[i] = judge0.Result{Status: judge0.Status{ID: 4, Description: "Wrong Answer"}}
		}
	}
	return results
}
