package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"feedback-service/internal/adaptive"
	"feedback-service/internal/models"
)

func newTestStore() *ScoreStore {
	return NewScoreStore(adaptive.NewManager(nil), nil)
}

func TestApplyReaction_InitializesAtNeutral(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	state, result, event, err := s.ApplyReaction(ctx, "learner-1", "session-1", "interaction-1", adaptive.SymbolThumbsUp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Score != 55 {
		t.Errorf("expected 50+5=55, got %.1f", state.Score)
	}
	if result.Delta != 5 {
		t.Errorf("expected delta 5, got %.1f", result.Delta)
	}
	if event.InteractionID != "interaction-1" || event.Symbol != "thumbs_up" {
		t.Errorf("unexpected event: %+v", event)
	}
	if event.ID == "" {
		t.Error("expected event id to be assigned")
	}
}

func TestApplyReaction_DuplicateRejected(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	if _, _, _, err := s.ApplyReaction(ctx, "learner-1", "session-1", "interaction-1", adaptive.SymbolThumbsUp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before, _ := s.Snapshot("learner-1", "session-1")

	// Same interaction again, even with a different symbol.
	_, _, _, err := s.ApplyReaction(ctx, "learner-1", "session-1", "interaction-1", adaptive.SymbolCross)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	after, _ := s.Snapshot("learner-1", "session-1")
	if after.Score != before.Score || after.TotalFeedback != before.TotalFeedback || after.Band != before.Band {
		t.Errorf("duplicate must not alter state: before=%+v after=%+v", before, after)
	}
}

func TestSnapshot_NotFoundBeforeFeedback(t *testing.T) {
	s := newTestStore()
	if _, err := s.Snapshot("learner-1", "session-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReset_ReturnsNeutralAndForgetsLedger(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("interaction-%d", i)
		if _, _, _, err := s.ApplyReaction(ctx, "learner-1", "session-1", id, adaptive.SymbolCross); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	state, err := s.Reset(ctx, "learner-1", "session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Score != 50 || adaptive.Band(state.Band) != adaptive.BandNormal {
		t.Errorf("expected 50/normal after reset, got %.1f/%s", state.Score, state.Band)
	}
	if state.TotalFeedback != 0 || state.PositiveFeedback != 0 || state.NegativeFeedback != 0 ||
		state.ConsecutivePositive != 0 || state.ConsecutiveNegative != 0 {
		t.Errorf("expected zeroed counters after reset, got %+v", state)
	}

	// Previously used interaction ids can be scored again.
	if _, _, _, err := s.ApplyReaction(ctx, "learner-1", "session-1", "interaction-0", adaptive.SymbolThumbsUp); err != nil {
		t.Fatalf("expected fresh ledger after reset, got %v", err)
	}
}

func TestUnknownSessionSemantics(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	if _, err := s.Reset(ctx, "learner-1", "session-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for reset of unseen session, got %v", err)
	}
	if _, err := s.Snapshot("learner-1", "session-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for snapshot of unseen session, got %v", err)
	}

	state, _, _, err := s.ApplyReaction(ctx, "learner-1", "session-1", "interaction-1", adaptive.SymbolSmile)
	if err != nil {
		t.Fatalf("first reaction must initialize the session: %v", err)
	}
	if state.Score != 52 || state.TotalFeedback != 1 {
		t.Errorf("expected 50+2 from a fresh neutral state, got %.1f (%d)", state.Score, state.TotalFeedback)
	}

	if _, err := s.Reset(ctx, "learner-1", "session-1"); err != nil {
		t.Fatalf("reset must succeed once the session exists: %v", err)
	}
}

func TestReset_UnknownSession(t *testing.T) {
	s := newTestStore()
	if _, err := s.Reset(context.Background(), "nobody", "nothing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHydrate_ResidentEntryWins(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	if _, _, _, err := s.ApplyReaction(ctx, "learner-1", "session-1", "interaction-1", adaptive.SymbolThumbsUp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stale := &models.ScoreState{LearnerID: "learner-1", SessionID: "session-1", Score: 10, Band: "very_struggling"}
	s.Hydrate(stale, []string{"interaction-9"})

	state, _ := s.Snapshot("learner-1", "session-1")
	if state.Score != 55 {
		t.Errorf("hydrate must not overwrite a resident session, got score %.1f", state.Score)
	}
}

func TestHydrate_RestoresLedger(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	persisted := &models.ScoreState{LearnerID: "learner-1", SessionID: "session-1", Score: 62, Band: "normal", TotalFeedback: 4}
	s.Hydrate(persisted, []string{"interaction-1", "interaction-2"})

	if _, _, _, err := s.ApplyReaction(ctx, "learner-1", "session-1", "interaction-1", adaptive.SymbolSmile); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate for hydrated interaction, got %v", err)
	}
	state, err := s.Snapshot("learner-1", "session-1")
	if err != nil || state.Score != 62 {
		t.Fatalf("expected hydrated score 62, got %+v (%v)", state, err)
	}
}

func TestApplyReaction_ConcurrentSessionsIndependent(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	const sessions = 8
	const reactionsPerSession = 20

	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sessionID := fmt.Sprintf("session-%d", n)
			for j := 0; j < reactionsPerSession; j++ {
				interaction := fmt.Sprintf("interaction-%d", j)
				if _, _, _, err := s.ApplyReaction(ctx, "learner-1", sessionID, interaction, adaptive.SymbolSmile); err != nil {
					t.Errorf("session %d reaction %d: %v", n, j, err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < sessions; i++ {
		state, err := s.Snapshot("learner-1", fmt.Sprintf("session-%d", i))
		if err != nil {
			t.Fatalf("session %d: %v", i, err)
		}
		if state.TotalFeedback != reactionsPerSession {
			t.Errorf("session %d: expected %d total, got %d", i, reactionsPerSession, state.TotalFeedback)
		}
		if state.Score < 0 || state.Score > 100 {
			t.Errorf("session %d: score out of bounds: %.2f", i, state.Score)
		}
	}
}

func TestApplyReaction_ConcurrentSameSessionSerialized(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			interaction := fmt.Sprintf("interaction-%d", n)
			_, _, _, _ = s.ApplyReaction(ctx, "learner-1", "session-1", interaction, adaptive.SymbolThumbsUp)
		}(i)
	}
	wg.Wait()

	state, err := s.Snapshot("learner-1", "session-1")
	if err != nil {
		t.Fatal(err)
	}
	if state.TotalFeedback != writers {
		t.Errorf("expected %d accepted reactions, got %d", writers, state.TotalFeedback)
	}
	if state.ConsecutivePositive != writers {
		t.Errorf("expected streak %d, got %d", writers, state.ConsecutivePositive)
	}
}
