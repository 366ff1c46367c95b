package adaptive

import (
	"math"
	"testing"
	"time"
)

func TestApply_ScoreStaysBounded(t *testing.T) {
	manager := NewManager(nil)
	now := time.Now()

	// Long pessimistic and optimistic runs must never leave [0,100].
	state := NewScoreState("learner-1", "session-1", now)
	for i := 0; i < 50; i++ {
		manager.Apply(state, SymbolCross, now)
		if state.Score < 0 || state.Score > 100 {
			t.Fatalf("score escaped bounds: %.2f", state.Score)
		}
	}
	if state.Score != 0 {
		t.Errorf("expected floor 0 after sustained crosses, got %.2f", state.Score)
	}

	for i := 0; i < 100; i++ {
		manager.Apply(state, SymbolThumbsUp, now)
		if state.Score < 0 || state.Score > 100 {
			t.Fatalf("score escaped bounds: %.2f", state.Score)
		}
	}
	if state.Score != 100 {
		t.Errorf("expected ceiling 100 after sustained thumbs up, got %.2f", state.Score)
	}
}

func TestApply_FiveThumbsUpFromNeutral(t *testing.T) {
	manager := NewManager(nil)
	now := time.Now()
	state := NewScoreState("learner-1", "session-1", now)

	expectedScores := []float64{55, 60, 65, 70, 75}
	for i, expected := range expectedScores {
		result := manager.Apply(state, SymbolThumbsUp, now)
		if math.Abs(state.Score-expected) > 0.001 {
			t.Fatalf("reaction %d: expected score %.1f, got %.1f", i+1, expected, state.Score)
		}
		if result.Band == BandStruggling || result.Band == BandVeryStruggling {
			t.Fatalf("reaction %d: band regressed to %s", i+1, result.Band)
		}
	}

	if Band(state.Band) != BandGood {
		t.Errorf("expected band good after five thumbs up, got %s", state.Band)
	}
	if state.ConsecutivePositive != 5 || state.ConsecutiveNegative != 0 {
		t.Errorf("unexpected streaks: +%d/-%d", state.ConsecutivePositive, state.ConsecutiveNegative)
	}
}

func TestApply_DampedDeltaAboveSeventy(t *testing.T) {
	manager := NewManager(nil)
	now := time.Now()
	state := NewScoreState("learner-1", "session-1", now)
	state.Score = 75
	state.Band = string(BandGood)

	result := manager.Apply(state, SymbolThumbsUp, now)
	if math.Abs(result.Delta-3.5) > 0.001 {
		t.Errorf("expected damped delta 3.5, got %.2f", result.Delta)
	}
}

func TestApply_CounterUpdates(t *testing.T) {
	manager := NewManager(nil)
	now := time.Now()
	state := NewScoreState("learner-1", "session-1", now)

	manager.Apply(state, SymbolThumbsUp, now)
	manager.Apply(state, SymbolSmile, now)
	manager.Apply(state, SymbolNeutral, now)

	if state.TotalFeedback != 3 {
		t.Errorf("expected 3 total, got %d", state.TotalFeedback)
	}
	if state.PositiveFeedback != 2 || state.NegativeFeedback != 1 {
		t.Errorf("expected 2 positive / 1 negative, got %d/%d", state.PositiveFeedback, state.NegativeFeedback)
	}
	// Opposite polarity resets the streak.
	if state.ConsecutivePositive != 0 || state.ConsecutiveNegative != 1 {
		t.Errorf("expected streaks 0/1, got %d/%d", state.ConsecutivePositive, state.ConsecutiveNegative)
	}
	if state.LastFeedbackAt == nil {
		t.Error("expected last_feedback_at to be set")
	}
}

func TestApply_BandChangedFlag(t *testing.T) {
	manager := NewManager(nil)
	now := time.Now()
	state := NewScoreState("learner-1", "session-1", now)
	state.Score = 73

	result := manager.Apply(state, SymbolThumbsUp, now)
	if !result.BandChanged || result.Band != BandGood {
		t.Errorf("expected band change to good, got %s (changed=%v)", result.Band, result.BandChanged)
	}

	result = manager.Apply(state, SymbolSmile, now)
	if result.BandChanged {
		t.Errorf("expected no band change, got %s", result.Band)
	}
}

func TestApply_RecoveryBoostAtBottom(t *testing.T) {
	manager := NewManager(nil)
	now := time.Now()
	state := NewScoreState("learner-1", "session-1", now)
	state.Score = 20
	state.Band = string(BandVeryStruggling)

	result := manager.Apply(state, SymbolThumbsUp, now)
	if math.Abs(result.Delta-6.5) > 0.001 {
		t.Errorf("expected boosted delta 6.5, got %.2f", result.Delta)
	}
	if math.Abs(state.Score-26.5) > 0.001 {
		t.Errorf("expected score 26.5, got %.2f", state.Score)
	}
}

func TestNewScoreState_Neutral(t *testing.T) {
	state := NewScoreState("learner-1", "session-1", time.Now())
	if state.Score != 50 {
		t.Errorf("expected initial score 50, got %.1f", state.Score)
	}
	if Band(state.Band) != BandNormal {
		t.Errorf("expected initial band normal, got %s", state.Band)
	}
	if state.TotalFeedback != 0 {
		t.Errorf("expected zero counters, got %d", state.TotalFeedback)
	}
}
