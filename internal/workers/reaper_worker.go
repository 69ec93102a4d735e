package workers

import (
	"context"
	"time"

	"github.com/evalytics-ai/assessment-service/internal/repositories"
	"github.com/evalytics-ai/assessment-service/internal/session"
	"github.com/evalytics-ai/assessment-service/internal/utils"
)

const reaperBatchSize = 50

// TimeoutHandler is the part of the session service the reaper drives.
type TimeoutHandler interface {
	HandleTimeout(ctx context.Context, sessionID string) error
}

// ReaperWorker scans for in-progress sessions past their deadline and
// auto-submits them. The submit path's status compare-and-set makes the sweep
// safe to run alongside manual submits and multiple reaper instances.
type ReaperWorker struct {
	sessions repositories.SessionRepository
	service  TimeoutHandler
	clock    session.Clock
	logger   utils.Logger

	interval time.Duration
}

func NewReaperWorker(sessions repositories.SessionRepository, service TimeoutHandler, clock session.Clock, logger utils.Logger) *ReaperWorker {
	return &ReaperWorker{
		sessions: sessions,
		service:  service,
		clock:    clock,
		logger:   logger,
		interval: 15 * time.Second,
	}
}

// Run blocks until ctx is cancelled.
func (w *ReaperWorker) Run(ctx context.Context) {
	w.logger.Info("session reaper started", "interval", w.interval.String())
	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("session reaper stopped")
			return
		case <-ticker.C():
			w.sweep(ctx)
		}
	}
}

func (w *ReaperWorker) sweep(ctx context.Context) {
	expired, err := w.sessions.ListExpired(ctx, w.clock.Now(), reaperBatchSize)
	if err != nil {
		w.logger.LogError(err, "expired session scan failed")
		return
	}

	for _, sess := range expired {
		if err := w.service.HandleTimeout(ctx, sess.ID); err != nil {
			w.logger.LogError(err, "session timeout handling failed", "session_id", sess.ID)
			continue
		}
		w.logger.Info("session timed out", "session_id", sess.ID, "user_id", sess.UserID)
	}
}
