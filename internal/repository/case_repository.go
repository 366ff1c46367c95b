package repository

import (
	"context"

	"feedback-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CaseRepository struct {
	Col *mongo.Collection
}

func NewCaseRepository(db *mongo.Database) *CaseRepository {
	return &CaseRepository{Col: db.Collection("assessment_cases")}
}

func (r *CaseRepository) Upsert(ctx context.Context, c *models.AssessmentCase) error {
	filter := bson.M{"interaction_id": c.InteractionID}
	update := bson.M{"$set": bson.M{
		"learner_id":                 c.LearnerID,
		"session_id":                 c.SessionID,
		"interaction_id":             c.InteractionID,
		"stage":                      c.Stage,
		"initial_symbol":             c.InitialSymbol,
		"initial_delta":              c.InitialDelta,
		"initial_completed_at":       c.InitialCompletedAt,
		"followup_eligible_at":       c.FollowUpEligibleAt,
		"followup_completed_at":      c.FollowUpCompletedAt,
		"deep_analysis_eligible":     c.DeepAnalysisEligible,
		"deep_analysis_completed_at": c.DeepAnalysisCompletedAt,
		"trigger_followup":           c.TriggerFollowUp,
		"trigger_deep_analysis":      c.TriggerDeepAnalysis,
		"closed":                     c.Closed,
	}}
	_, err := r.Col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *CaseRepository) FindByInteraction(ctx context.Context, interactionID string) (*models.AssessmentCase, error) {
	var c models.AssessmentCase
	err := r.Col.FindOne(ctx, bson.M{"interaction_id": interactionID}).Decode(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CaseRepository) DeleteBySession(ctx context.Context, learnerID, sessionID string) error {
	_, err := r.Col.DeleteMany(ctx, bson.M{"learner_id": learnerID, "session_id": sessionID})
	return err
}
