package store

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"feedback-service/internal/adaptive"
	"feedback-service/internal/models"
)

var (
	// ErrNotFound marks an operation on a learner+session that has no
	// state yet.
	ErrNotFound = errors.New("score state not found")
	// ErrDuplicate marks a reaction for an interaction that already has
	// one. The original result is deliberately not re-returned.
	ErrDuplicate = errors.New("reaction already recorded for interaction")
)

// Persister is the write-through sink for applied reactions. Persistence
// failures are logged and never roll back an applied update: the in-memory
// state is the source of truth for a live session.
type Persister interface {
	SaveScoreState(ctx context.Context, state *models.ScoreState) error
	SaveReaction(ctx context.Context, event *models.ReactionEvent) error
}

// sessionEntry owns one learner+session record. Its mutex serializes the
// read-modify-write so the score-bound and streak invariants hold; entries
// for different sessions never contend.
type sessionEntry struct {
	mu    sync.Mutex
	state models.ScoreState
	seen  map[string]struct{} // interaction ids with an accepted reaction
}

// ScoreStore is the keyed owner of all ScoreState records. No other
// component mutates comprehension state.
type ScoreStore struct {
	mu        sync.RWMutex
	sessions  map[string]*sessionEntry
	manager   *adaptive.Manager
	persister Persister
	now       func() time.Time
}

// NewScoreStore creates a store around the given adaptive manager. The
// persister may be nil, in which case state lives in memory only.
func NewScoreStore(manager *adaptive.Manager, persister Persister) *ScoreStore {
	return &ScoreStore{
		sessions:  make(map[string]*sessionEntry),
		manager:   manager,
		persister: persister,
		now:       time.Now,
	}
}

func sessionKey(learnerID, sessionID string) string {
	return learnerID + "|" + sessionID
}

func (s *ScoreStore) entry(learnerID, sessionID string, create bool) (*sessionEntry, bool) {
	key := sessionKey(learnerID, sessionID)

	s.mu.RLock()
	e, ok := s.sessions[key]
	s.mu.RUnlock()
	if ok || !create {
		return e, ok
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.sessions[key]; ok {
		return e, true
	}
	e = &sessionEntry{
		state: *adaptive.NewScoreState(learnerID, sessionID, s.now()),
		seen:  make(map[string]struct{}),
	}
	s.sessions[key] = e
	return e, true
}

// ApplyReaction is the single atomic scoring operation: duplicate check,
// delta, clamp, counters, band reclassification and persistence all run
// under the session's lock. The first reaction for an unseen session
// initializes it at the neutral score.
func (s *ScoreStore) ApplyReaction(ctx context.Context, learnerID, sessionID, interactionID string, symbol adaptive.Symbol) (*models.ScoreState, *adaptive.ReactionResult, *models.ReactionEvent, error) {
	e, _ := s.entry(learnerID, sessionID, true)

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, dup := e.seen[interactionID]; dup {
		return nil, nil, nil, ErrDuplicate
	}

	now := s.now()
	result := s.manager.Apply(&e.state, symbol, now)
	e.seen[interactionID] = struct{}{}

	event := &models.ReactionEvent{
		ID:            uuid.NewString(),
		LearnerID:     learnerID,
		SessionID:     sessionID,
		InteractionID: interactionID,
		Symbol:        string(symbol),
		DeltaApplied:  result.Delta,
		ScoreAfter:    result.Score,
		BandAfter:     string(result.Band),
		RecordedAt:    now,
	}

	if s.persister != nil {
		if err := s.persister.SaveScoreState(ctx, &e.state); err != nil {
			log.Printf("score state persistence failed for %s/%s: %v", learnerID, sessionID, err)
		}
		if err := s.persister.SaveReaction(ctx, event); err != nil {
			log.Printf("reaction persistence failed for %s: %v", interactionID, err)
		}
	}

	snapshot := e.state
	return &snapshot, result, event, nil
}

// Snapshot returns a consistent copy of the current state, or ErrNotFound
// if no feedback has ever been recorded for the session.
func (s *ScoreStore) Snapshot(learnerID, sessionID string) (*models.ScoreState, error) {
	e, ok := s.entry(learnerID, sessionID, false)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	snapshot := e.state
	return &snapshot, nil
}

// Hydrate installs a previously persisted state for a session that is not
// yet resident, e.g. after a restart. A resident entry wins over the
// hydrated one.
func (s *ScoreStore) Hydrate(state *models.ScoreState, interactionIDs []string) {
	key := sessionKey(state.LearnerID, state.SessionID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[key]; ok {
		return
	}
	e := &sessionEntry{state: *state, seen: make(map[string]struct{}, len(interactionIDs))}
	for _, id := range interactionIDs {
		e.seen[id] = struct{}{}
	}
	s.sessions[key] = e
}

// Reset returns the session to the neutral initial state with zeroed
// counters and forgets its interaction ledger so the next interaction is
// scored fresh.
func (s *ScoreStore) Reset(ctx context.Context, learnerID, sessionID string) (*models.ScoreState, error) {
	e, ok := s.entry(learnerID, sessionID, false)
	if !ok {
		return nil, ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = *adaptive.NewScoreState(learnerID, sessionID, s.now())
	e.seen = make(map[string]struct{})

	if s.persister != nil {
		if err := s.persister.SaveScoreState(ctx, &e.state); err != nil {
			log.Printf("score state persistence failed on reset for %s/%s: %v", learnerID, sessionID, err)
		}
	}

	snapshot := e.state
	return &snapshot, nil
}
