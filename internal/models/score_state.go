package models

import "time"

// ScoreState is the per learner+session comprehension record. The score is
// always kept within [0,100]; the band is derived from score and previous
// band, never from score alone.
type ScoreState struct {
	ID                  string     `bson:"_id,omitempty" json:"id"`
	LearnerID           string     `bson:"learner_id" json:"learner_id"`
	SessionID           string     `bson:"session_id" json:"session_id"`
	Score               float64    `bson:"score" json:"score"`
	Band                string     `bson:"band" json:"band"`
	TotalFeedback       uint       `bson:"total_feedback" json:"total_feedback"`
	PositiveFeedback    uint       `bson:"positive_feedback" json:"positive_feedback"`
	NegativeFeedback    uint       `bson:"negative_feedback" json:"negative_feedback"`
	ConsecutivePositive uint       `bson:"consecutive_positive" json:"consecutive_positive"`
	ConsecutiveNegative uint       `bson:"consecutive_negative" json:"consecutive_negative"`
	LastFeedbackAt      *time.Time `bson:"last_feedback_at,omitempty" json:"last_feedback_at,omitempty"`
	UpdatedAt           time.Time  `bson:"updated_at" json:"updated_at"`
}

// FeedbackStatistics is the aggregate block returned alongside score updates
// and state queries.
type FeedbackStatistics struct {
	TotalFeedback       uint    `json:"total_feedback"`
	PositiveFeedback    uint    `json:"positive_feedback"`
	NegativeFeedback    uint    `json:"negative_feedback"`
	ConsecutivePositive uint    `json:"consecutive_positive"`
	ConsecutiveNegative uint    `json:"consecutive_negative"`
	PositiveRatio       float64 `json:"positive_ratio"`
}

// Statistics derives the aggregate block from the current counters.
func (s *ScoreState) Statistics() FeedbackStatistics {
	stats := FeedbackStatistics{
		TotalFeedback:       s.TotalFeedback,
		PositiveFeedback:    s.PositiveFeedback,
		NegativeFeedback:    s.NegativeFeedback,
		ConsecutivePositive: s.ConsecutivePositive,
		ConsecutiveNegative: s.ConsecutiveNegative,
	}
	if s.TotalFeedback > 0 {
		stats.PositiveRatio = float64(s.PositiveFeedback) / float64(s.TotalFeedback)
	}
	return stats
}
