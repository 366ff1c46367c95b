package adaptive

import (
	"time"

	"feedback-service/internal/models"
)

// Manager applies reaction feedback to comprehension state. It holds the
// tuning config and carries no per-learner state of its own; callers are
// responsible for serializing access to a given ScoreState.
type Manager struct {
	config *AdaptiveConfig
}

// NewManager creates a new adaptive manager.
func NewManager(config *AdaptiveConfig) *Manager {
	if config == nil {
		config = DefaultAdaptiveConfig()
	}
	return &Manager{config: config}
}

// ReactionResult reports the effect of one applied reaction.
type ReactionResult struct {
	Symbol      Symbol  `json:"symbol"`
	Delta       float64 `json:"delta"`
	Score       float64 `json:"score"`
	Band        Band    `json:"band"`
	BandChanged bool    `json:"band_changed"`
}

// NewScoreState returns the neutral initial state for a learner+session.
func NewScoreState(learnerID, sessionID string, now time.Time) *models.ScoreState {
	return &models.ScoreState{
		LearnerID: learnerID,
		SessionID: sessionID,
		Score:     50,
		Band:      string(BandNormal),
		UpdatedAt: now,
	}
}

// Apply mutates state with one reaction: computes the load-dependent delta,
// clamps the score to [0,100], updates the counters, and reclassifies the
// band against the previous one.
func (m *Manager) Apply(state *models.ScoreState, symbol Symbol, now time.Time) *ReactionResult {
	previousBand := Band(state.Band)
	delta := m.Delta(symbol, state.Score)

	state.Score = clamp(state.Score+delta, 0, 100)
	state.TotalFeedback++
	if symbol.Positive() {
		state.PositiveFeedback++
		state.ConsecutivePositive++
		state.ConsecutiveNegative = 0
	} else {
		state.NegativeFeedback++
		state.ConsecutiveNegative++
		state.ConsecutivePositive = 0
	}
	state.LastFeedbackAt = &now
	state.UpdatedAt = now

	band := m.Classify(state.Score, previousBand)
	state.Band = string(band)

	return &ReactionResult{
		Symbol:      symbol,
		Delta:       delta,
		Score:       state.Score,
		Band:        band,
		BandChanged: band != previousBand && previousBand.Valid(),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
