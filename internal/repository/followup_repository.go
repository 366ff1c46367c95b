package repository

import (
	"context"

	"feedback-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type FollowUpRepository struct {
	Col *mongo.Collection
}

func NewFollowUpRepository(db *mongo.Database) *FollowUpRepository {
	return &FollowUpRepository{Col: db.Collection("followups")}
}

func (r *FollowUpRepository) Create(ctx context.Context, record *models.FollowUpRecord) error {
	_, err := r.Col.InsertOne(ctx, record)
	return err
}

func (r *FollowUpRepository) DeleteBySession(ctx context.Context, learnerID, sessionID string) error {
	_, err := r.Col.DeleteMany(ctx, bson.M{"learner_id": learnerID, "session_id": sessionID})
	return err
}
