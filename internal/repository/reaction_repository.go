package repository

import (
	"context"

	"feedback-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReactionRepository struct {
	Col *mongo.Collection
}

func NewReactionRepository(db *mongo.Database) *ReactionRepository {
	return &ReactionRepository{Col: db.Collection("reactions")}
}

func (r *ReactionRepository) Create(ctx context.Context, event *models.ReactionEvent) error {
	_, err := r.Col.InsertOne(ctx, event)
	return err
}

func (r *ReactionRepository) FindBySession(ctx context.Context, learnerID, sessionID string) ([]models.ReactionEvent, error) {
	opts := options.Find().SetSort(bson.M{"recorded_at": 1})
	cursor, err := r.Col.Find(ctx, bson.M{"learner_id": learnerID, "session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []models.ReactionEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// InteractionIDs lists the interaction ids that already have an accepted
// reaction, used to rebuild the duplicate ledger after a restart.
func (r *ReactionRepository) InteractionIDs(ctx context.Context, learnerID, sessionID string) ([]string, error) {
	events, err := r.FindBySession(ctx, learnerID, sessionID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.InteractionID)
	}
	return ids, nil
}

func (r *ReactionRepository) DeleteBySession(ctx context.Context, learnerID, sessionID string) error {
	_, err := r.Col.DeleteMany(ctx, bson.M{"learner_id": learnerID, "session_id": sessionID})
	return err
}
