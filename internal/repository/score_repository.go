package repository

import (
	"context"

	"feedback-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ScoreRepository struct {
	Col *mongo.Collection
}

func NewScoreRepository(db *mongo.Database) *ScoreRepository {
	return &ScoreRepository{Col: db.Collection("score_states")}
}

func (r *ScoreRepository) FindBySession(ctx context.Context, learnerID, sessionID string) (*models.ScoreState, error) {
	var state models.ScoreState
	err := r.Col.FindOne(ctx, bson.M{"learner_id": learnerID, "session_id": sessionID}).Decode(&state)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// Upsert writes the full state keyed by learner+session.
func (r *ScoreRepository) Upsert(ctx context.Context, state *models.ScoreState) error {
	filter := bson.M{"learner_id": state.LearnerID, "session_id": state.SessionID}
	update := bson.M{"$set": bson.M{
		"learner_id":           state.LearnerID,
		"session_id":           state.SessionID,
		"score":                state.Score,
		"band":                 state.Band,
		"total_feedback":       state.TotalFeedback,
		"positive_feedback":    state.PositiveFeedback,
		"negative_feedback":    state.NegativeFeedback,
		"consecutive_positive": state.ConsecutivePositive,
		"consecutive_negative": state.ConsecutiveNegative,
		"last_feedback_at":     state.LastFeedbackAt,
		"updated_at":           state.UpdatedAt,
	}}
	_, err := r.Col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
