package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"feedback-service/internal/models"
)

// Snapshot is the cached last-known-good view of a session's state. A
// failed refresh only updates RefreshError; the state itself is retained
// until a successful refresh replaces it, so a downstream outage never
// blanks a previously displayed score.
type Snapshot struct {
	State        models.ScoreState `json:"state"`
	CachedAt     time.Time         `json:"cached_at"`
	RefreshError string            `json:"refresh_error,omitempty"`
}

type StateCache interface {
	SetLastKnownGood(ctx context.Context, state *models.ScoreState) error
	MarkRefreshFailed(ctx context.Context, learnerID, sessionID string, cause error) error
	Get(ctx context.Context, learnerID, sessionID string) (*Snapshot, error)
	Delete(ctx context.Context, learnerID, sessionID string) error
}

type stateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStateCache creates a Redis-backed snapshot cache.
func NewStateCache(client *redis.Client, ttl time.Duration) StateCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &stateCache{client: client, ttl: ttl}
}

func stateKey(learnerID, sessionID string) string {
	return "feedback:state:" + learnerID + ":" + sessionID
}

func (c *stateCache) SetLastKnownGood(ctx context.Context, state *models.ScoreState) error {
	snapshot := Snapshot{State: *state, CachedAt: time.Now()}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, stateKey(state.LearnerID, state.SessionID), data, c.ttl).Err()
}

// MarkRefreshFailed records the failure on the existing snapshot without
// touching the retained state. A miss is a no-op: there is nothing stale
// worth keeping.
func (c *stateCache) MarkRefreshFailed(ctx context.Context, learnerID, sessionID string, cause error) error {
	snapshot, err := c.Get(ctx, learnerID, sessionID)
	if err != nil {
		return nil
	}
	snapshot.RefreshError = cause.Error()
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, stateKey(learnerID, sessionID), data, c.ttl).Err()
}

func (c *stateCache) Get(ctx context.Context, learnerID, sessionID string) (*Snapshot, error) {
	data, err := c.client.Get(ctx, stateKey(learnerID, sessionID)).Result()
	if err != nil {
		return nil, err
	}
	var snapshot Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (c *stateCache) Delete(ctx context.Context, learnerID, sessionID string) error {
	return c.client.Del(ctx, stateKey(learnerID, sessionID)).Err()
}
