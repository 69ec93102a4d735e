package workers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/evalytics-ai/assessment-service/internal/cache"
	"github.com/evalytics-ai/assessment-service/internal/repositories"
	"github.com/evalytics-ai/assessment-service/internal/session"
	"github.com/evalytics-ai/assessment-service/internal/utils"
)

// AutosaveQueue is the part of the session cache the worker consumes.
type AutosaveQueue interface {
	DequeueAutosave(ctx context.Context, timeout time.Duration) (cache.AutosaveJob, bool, error)
}

// AutosaveWorker drains the autosave queue and writes answers through to the
// database. Redis already holds the hot copy, so losing a single write here
// only delays durability until the next save or the final submit merge.
type AutosaveWorker struct {
	queue    AutosaveQueue
	sessions repositories.SessionRepository
	logger   utils.Logger

	popTimeout time.Duration
}

func NewAutosaveWorker(queue AutosaveQueue, sessions repositories.SessionRepository, logger utils.Logger) *AutosaveWorker {
	return &AutosaveWorker{
		queue:      queue,
		sessions:   sessions,
		logger:     logger,
		popTimeout: 5 * time.Second,
	}
}

// Run blocks until ctx is cancelled.
func (w *AutosaveWorker) Run(ctx context.Context) {
	w.logger.Info("autosave worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("autosave worker stopped")
			return
		default:
		}

		job, found, err := w.queue.DequeueAutosave(ctx, w.popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("autosave worker stopped")
				return
			}
			w.logger.LogError(err, "autosave dequeue failed")
			time.Sleep(time.Second)
			continue
		}
		if !found {
			continue
		}

		if err := w.persist(ctx, job); err != nil {
			w.logger.LogError(err, "autosave persist failed",
				"session_id", job.SessionID, "question_id", job.QuestionID)
		}
	}
}

func (w *AutosaveWorker) persist(ctx context.Context, job cache.AutosaveJob) error {
	sess, err := w.sessions.GetByID(ctx, job.SessionID)
	if err != nil {
		return err
	}
	if sess == nil || sess.IsTerminal() {
		// Submit already merged the queued answers; nothing to do.
		return nil
	}

	answers := make(map[string]string)
	statuses := make(map[string]session.QuestionStatus)
	if len(sess.Answers) > 0 {
		if err := json.Unmarshal(sess.Answers, &answers); err != nil {
			return err
		}
	}
	if len(sess.Statuses) > 0 {
		if err := json.Unmarshal(sess.Statuses, &statuses); err != nil {
			return err
		}
	}

	if job.Answer == "" {
		delete(answers, job.QuestionID)
		statuses[job.QuestionID] = session.Clear(statuses[job.QuestionID])
	} else {
		answers[job.QuestionID] = job.Answer
		statuses[job.QuestionID] = session.Answer(statuses[job.QuestionID])
	}

	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	statusesJSON, err := json.Marshal(statuses)
	if err != nil {
		return err
	}
	return w.sessions.UpdateAnswers(ctx, sess.ID, answersJSON, statusesJSON)
}
