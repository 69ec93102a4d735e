package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionEndKeyFmt  = "session:%s:end_time"
	sessionAnswersFmt = "session:%s:answers"
	autosaveQueueKey  = "queue:answer_autosave"
)

// SessionCache keeps the hot per-session state in redis: the deadline for
// cheap remaining-time reads and the latest autosaved answers. The database
// row stays authoritative; everything here is rebuildable from it.
type SessionCache struct {
	client *redis.Client
}

func NewSessionCache(client *redis.Client) *SessionCache {
	return &SessionCache{client: client}
}

// SetDeadline caches the session deadline for the session's lifetime plus a
// grace window so the reaper can still read it shortly after expiry.
func (c *SessionCache) SetDeadline(ctx context.Context, sessionID string, endTime time.Time) error {
	ttl := time.Until(endTime) + 10*time.Minute
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return c.client.Set(ctx, fmt.Sprintf(sessionEndKeyFmt, sessionID), endTime.Unix(), ttl).Err()
}

// GetDeadline returns the cached deadline; found is false on a miss, in which
// case the caller falls back to the database and may re-prime the cache.
func (c *SessionCache) GetDeadline(ctx context.Context, sessionID string) (time.Time, bool, error) {
	unix, err := c.client.Get(ctx, fmt.Sprintf(sessionEndKeyFmt, sessionID)).Int64()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.Unix(unix, 0), true, nil
}

// SaveAnswer stores one autosaved answer in the session's answer hash.
func (c *SessionCache) SaveAnswer(ctx context.Context, sessionID, questionID, answer string) error {
	key := fmt.Sprintf(sessionAnswersFmt, sessionID)
	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, questionID, answer)
	pipe.Expire(ctx, key, 6*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

// GetAnswers returns every autosaved answer for the session.
func (c *SessionCache) GetAnswers(ctx context.Context, sessionID string) (map[string]string, error) {
	return c.client.HGetAll(ctx, fmt.Sprintf(sessionAnswersFmt, sessionID)).Result()
}

// Clear drops the session's cached state after it reaches a terminal status.
func (c *SessionCache) Clear(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx,
		fmt.Sprintf(sessionEndKeyFmt, sessionID),
		fmt.Sprintf(sessionAnswersFmt, sessionID),
	).Err()
}

// AutosaveJob is one queued answer persistence request consumed by the
// autosave worker.
type AutosaveJob struct {
	SessionID  string `json:"session_id"`
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// EnqueueAutosave pushes an answer persistence job for the worker.
func (c *SessionCache) EnqueueAutosave(ctx context.Context, job AutosaveJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return c.client.LPush(ctx, autosaveQueueKey, data).Err()
}

// DequeueAutosave blocks up to timeout waiting for the next job; found is
// false when the wait timed out.
func (c *SessionCache) DequeueAutosave(ctx context.Context, timeout time.Duration) (AutosaveJob, bool, error) {
	var job AutosaveJob
	res, err := c.client.BLPop(ctx, timeout, autosaveQueueKey).Result()
	if errors.Is(err, redis.Nil) {
		return job, false, nil
	}
	if err != nil {
		return job, false, err
	}
	// BLPop returns [key, value].
	if len(res) != 2 {
		return job, false, fmt.Errorf("unexpected BLPOP reply length %d", len(res))
	}
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return job, false, err
	}
	return job, true, nil
}
