package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/mongo"

	"feedback-service/internal/adaptive"
	"feedback-service/internal/cache"
	"feedback-service/internal/models"
	"feedback-service/internal/store"
)

// ErrValidation marks a malformed ingestion request.
var ErrValidation = errors.New("validation failed")

// ScoreReader is the persisted-state lookup the service needs to bring a
// session back after a restart. *repository.ScoreRepository implements it.
type ScoreReader interface {
	FindBySession(ctx context.Context, learnerID, sessionID string) (*models.ScoreState, error)
}

// ReactionLog is the persisted reaction history.
// *repository.ReactionRepository implements it.
type ReactionLog interface {
	FindBySession(ctx context.Context, learnerID, sessionID string) ([]models.ReactionEvent, error)
	InteractionIDs(ctx context.Context, learnerID, sessionID string) ([]string, error)
	DeleteBySession(ctx context.Context, learnerID, sessionID string) error
}

// FeedbackService owns reaction ingestion, state queries and session
// resets. The in-memory store is authoritative for live sessions; mongo is
// the restart-survival layer and redis holds the last-known-good snapshot
// for the query path.
type FeedbackService struct {
	Store        *store.ScoreStore
	ScoreRepo    ScoreReader
	ReactionRepo ReactionLog
	Cache        cache.StateCache
}

func NewFeedbackService(
	scoreStore *store.ScoreStore,
	scoreRepo ScoreReader,
	reactionRepo ReactionLog,
	stateCache cache.StateCache,
) *FeedbackService {
	return &FeedbackService{
		Store:        scoreStore,
		ScoreRepo:    scoreRepo,
		ReactionRepo: reactionRepo,
		Cache:        stateCache,
	}
}

// IngestResult is the response to an accepted reaction.
type IngestResult struct {
	Score       float64                   `json:"score"`
	Band        string                    `json:"band"`
	BandLabel   string                    `json:"band_label"`
	Delta       float64                   `json:"delta"`
	BandChanged bool                      `json:"band_changed"`
	Statistics  models.FeedbackStatistics `json:"statistics"`
	Event       *models.ReactionEvent     `json:"-"`
}

// IngestReaction validates and applies one reaction. Duplicates for an
// interaction are rejected without re-scoring; the first reaction for an
// unseen session initializes it at the neutral score.
func (s *FeedbackService) IngestReaction(ctx context.Context, learnerID, sessionID, interactionID, symbol string) (*IngestResult, error) {
	if learnerID == "" || sessionID == "" || interactionID == "" {
		return nil, fmt.Errorf("%w: learner, session and interaction ids are required", ErrValidation)
	}
	parsed, ok := adaptive.ParseSymbol(symbol)
	if !ok {
		return nil, fmt.Errorf("%w: unknown reaction symbol %q", ErrValidation, symbol)
	}

	// A non-resident session may still exist in mongo after a restart.
	// Rehydrating first keeps the duplicate ledger intact across restarts
	// and stops a retried interaction from re-scoring at the neutral
	// baseline. Only a session mongo has never seen auto-initializes.
	if _, err := s.Store.Snapshot(learnerID, sessionID); errors.Is(err, store.ErrNotFound) {
		if _, err := s.rehydrate(ctx, learnerID, sessionID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	state, result, event, err := s.Store.ApplyReaction(ctx, learnerID, sessionID, interactionID, parsed)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		if err := s.Cache.SetLastKnownGood(ctx, state); err != nil {
			log.Printf("snapshot cache update failed for %s/%s: %v", learnerID, sessionID, err)
		}
	}

	return &IngestResult{
		Score:       state.Score,
		Band:        state.Band,
		BandLabel:   result.Band.Label(),
		Delta:       result.Delta,
		BandChanged: result.BandChanged,
		Statistics:  state.Statistics(),
		Event:       event,
	}, nil
}

// StateResponse is the query-path view of a session.
type StateResponse struct {
	Initialized bool                      `json:"initialized"`
	Stale       bool                      `json:"stale,omitempty"`
	State       *models.ScoreState        `json:"state,omitempty"`
	BandLabel   string                    `json:"band_label,omitempty"`
	Statistics  *models.FeedbackStatistics `json:"statistics,omitempty"`
	// Explanation describes how to re-render the last answer at the
	// current band; rendering itself belongs to the presentation layer.
	Explanation *ExplanationRequest `json:"explanation,omitempty"`
}

// ExplanationRequest echoes the caller's last query/context tagged with the
// band a reconstructed explanation should target.
type ExplanationRequest struct {
	Query   string `json:"query"`
	Context string `json:"context,omitempty"`
	Band    string `json:"band"`
	Label   string `json:"label"`
}

// GetState returns a consistent snapshot of the session. Resolution order:
// resident in-memory state, then mongo (rehydrating the store), then the
// redis last-known-good snapshot when mongo is unreachable. A session with
// no feedback anywhere reports initialized=false rather than an error.
func (s *FeedbackService) GetState(ctx context.Context, learnerID, sessionID, lastQuery, lastContext string) (*StateResponse, error) {
	if learnerID == "" || sessionID == "" {
		return nil, fmt.Errorf("%w: learner and session ids are required", ErrValidation)
	}

	state, err := s.Store.Snapshot(learnerID, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		state, err = s.rehydrate(ctx, learnerID, sessionID)
	}

	switch {
	case err == nil:
		if s.Cache != nil {
			if cacheErr := s.Cache.SetLastKnownGood(ctx, state); cacheErr != nil {
				log.Printf("snapshot cache update failed for %s/%s: %v", learnerID, sessionID, cacheErr)
			}
		}
		return s.stateResponse(state, false, lastQuery, lastContext), nil

	case errors.Is(err, store.ErrNotFound):
		return &StateResponse{Initialized: false}, nil

	default:
		// Refresh failed; fall back to the retained snapshot rather
		// than showing nothing.
		log.Printf("state refresh failed for %s/%s: %v", learnerID, sessionID, err)
		if s.Cache != nil {
			_ = s.Cache.MarkRefreshFailed(ctx, learnerID, sessionID, err)
			if snapshot, cacheErr := s.Cache.Get(ctx, learnerID, sessionID); cacheErr == nil {
				return s.stateResponse(&snapshot.State, true, lastQuery, lastContext), nil
			}
		}
		return nil, err
	}
}

func (s *FeedbackService) rehydrate(ctx context.Context, learnerID, sessionID string) (*models.ScoreState, error) {
	if s.ScoreRepo == nil {
		return nil, store.ErrNotFound
	}
	persisted, err := s.ScoreRepo.FindBySession(ctx, learnerID, sessionID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var interactionIDs []string
	if s.ReactionRepo != nil {
		if interactionIDs, err = s.ReactionRepo.InteractionIDs(ctx, learnerID, sessionID); err != nil {
			return nil, err
		}
	}
	s.Store.Hydrate(persisted, interactionIDs)
	return s.Store.Snapshot(learnerID, sessionID)
}

func (s *FeedbackService) stateResponse(state *models.ScoreState, stale bool, lastQuery, lastContext string) *StateResponse {
	stats := state.Statistics()
	resp := &StateResponse{
		Initialized: true,
		Stale:       stale,
		State:       state,
		BandLabel:   adaptive.Band(state.Band).Label(),
		Statistics:  &stats,
	}
	if lastQuery != "" {
		resp.Explanation = &ExplanationRequest{
			Query:   lastQuery,
			Context: lastContext,
			Band:    state.Band,
			Label:   adaptive.Band(state.Band).Label(),
		}
	}
	return resp
}

// History returns the accepted reactions for a session in order.
func (s *FeedbackService) History(ctx context.Context, learnerID, sessionID string) ([]models.ReactionEvent, error) {
	if s.ReactionRepo == nil {
		return []models.ReactionEvent{}, nil
	}
	return s.ReactionRepo.FindBySession(ctx, learnerID, sessionID)
}

// Reset clears the session back to the neutral score and removes its
// persisted feedback so the next interaction starts a fresh assessment.
func (s *FeedbackService) Reset(ctx context.Context, learnerID, sessionID string) (*models.ScoreState, error) {
	state, err := s.Store.Reset(ctx, learnerID, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		// The session may only exist in mongo after a restart.
		if _, hydrateErr := s.rehydrate(ctx, learnerID, sessionID); hydrateErr != nil {
			return nil, hydrateErr
		}
		state, err = s.Store.Reset(ctx, learnerID, sessionID)
	}
	if err != nil {
		return nil, err
	}

	if s.ReactionRepo != nil {
		if repoErr := s.ReactionRepo.DeleteBySession(ctx, learnerID, sessionID); repoErr != nil {
			log.Printf("reaction cleanup failed for %s/%s: %v", learnerID, sessionID, repoErr)
		}
	}
	if s.Cache != nil {
		if cacheErr := s.Cache.SetLastKnownGood(ctx, state); cacheErr != nil {
			log.Printf("snapshot cache update failed on reset for %s/%s: %v", learnerID, sessionID, cacheErr)
		}
	}
	return state, nil
}
