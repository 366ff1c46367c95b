package models

import "time"

// ReactionEvent is a single accepted emoji reaction. Immutable once stored;
// at most one per (learner, session, interaction).
type ReactionEvent struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	LearnerID     string    `bson:"learner_id" json:"learner_id"`
	SessionID     string    `bson:"session_id" json:"session_id"`
	InteractionID string    `bson:"interaction_id" json:"interaction_id"`
	Symbol        string    `bson:"symbol" json:"symbol"`
	DeltaApplied  float64   `bson:"delta_applied" json:"delta_applied"`
	ScoreAfter    float64   `bson:"score_after" json:"score_after"`
	BandAfter     string    `bson:"band_after" json:"band_after"`
	RecordedAt    time.Time `bson:"recorded_at" json:"recorded_at"`
}
