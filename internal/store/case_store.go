package store

import (
	"sync"

	"feedback-service/internal/models"
)

// CaseStore is the keyed owner of assessment cases, one per interaction.
// Cases do not outlive their session: a session reset drops them.
type CaseStore struct {
	mu        sync.RWMutex
	cases     map[string]*models.AssessmentCase // by interaction id
	bySession map[string][]string               // session key -> interaction ids
}

// NewCaseStore creates an empty case store.
func NewCaseStore() *CaseStore {
	return &CaseStore{
		cases:     make(map[string]*models.AssessmentCase),
		bySession: make(map[string][]string),
	}
}

// Put registers a new case for its interaction. The first case wins; a
// duplicate interaction never replaces an existing case. The store keeps
// its own copy so callers never hold a reference into it.
func (s *CaseStore) Put(c *models.AssessmentCase) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[c.InteractionID]; ok {
		return false
	}
	stored := *c
	s.cases[c.InteractionID] = &stored
	key := sessionKey(c.LearnerID, c.SessionID)
	s.bySession[key] = append(s.bySession[key], c.InteractionID)
	return true
}

// Get returns a consistent copy of the case for an interaction, if any.
// Readers poll cases while Update mutates them, so the live struct never
// leaves the lock.
func (s *CaseStore) Get(interactionID string) (*models.AssessmentCase, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[interactionID]
	if !ok {
		return nil, false
	}
	snapshot := *c
	return &snapshot, true
}

// Update runs fn against the case under the store lock, so stage
// transitions for one interaction are serialized, and returns a copy of
// the updated case. A failed fn leaves the case unchanged only if fn
// itself does; stage transitions validate before mutating.
func (s *CaseStore) Update(interactionID string, fn func(*models.AssessmentCase) error) (*models.AssessmentCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[interactionID]
	if !ok {
		return nil, ErrNotFound
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	snapshot := *c
	return &snapshot, nil
}

// DropSession removes every case belonging to a learner+session and
// returns how many were dropped. Used on session reset.
func (s *CaseStore) DropSession(learnerID, sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sessionKey(learnerID, sessionID)
	ids := s.bySession[key]
	for _, id := range ids {
		delete(s.cases, id)
	}
	delete(s.bySession, key)
	return len(ids)
}
