package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"feedback-service/internal/models"
	"feedback-service/internal/recommend"
	"feedback-service/internal/repository"
	"feedback-service/internal/stager"
	"feedback-service/internal/store"
)

// AssessmentService owns the per-interaction assessment lifecycle: case
// creation on the first reaction, trigger checks, and the staged follow-up
// and deep-analysis submissions.
type AssessmentService struct {
	Stager       *stager.Stager
	Cases        *store.CaseStore
	CaseRepo     *repository.CaseRepository
	FollowUpRepo *repository.FollowUpRepository
	Recommender  recommend.Recommender
	now          func() time.Time
}

func NewAssessmentService(
	st *stager.Stager,
	cases *store.CaseStore,
	caseRepo *repository.CaseRepository,
	followUpRepo *repository.FollowUpRepository,
	recommender recommend.Recommender,
) *AssessmentService {
	if recommender == nil {
		recommender = recommend.NopRecommender{}
	}
	return &AssessmentService{
		Stager:       st,
		Cases:        cases,
		CaseRepo:     caseRepo,
		FollowUpRepo: followUpRepo,
		Recommender:  recommender,
		now:          time.Now,
	}
}

// OpenCase starts the assessment for an interaction's accepted reaction.
// Idempotent: a case already open for the interaction is returned as-is.
func (s *AssessmentService) OpenCase(ctx context.Context, event *models.ReactionEvent) *models.AssessmentCase {
	c := s.Stager.OpenCase(event, event.RecordedAt)
	if !s.Cases.Put(c) {
		existing, _ := s.Cases.Get(event.InteractionID)
		return existing
	}
	s.persistCase(ctx, c)
	return c
}

// TriggerInfo is the poll-safe trigger view for an interaction.
type TriggerInfo struct {
	TriggerFollowUp     bool    `json:"trigger_followup"`
	TriggerDeepAnalysis bool    `json:"trigger_deep_analysis"`
	EmojiFeedback       string  `json:"emoji_feedback"`
	EmojiScore          float64 `json:"emoji_score"`
}

// Triggers reports the frozen trigger flags and the initial reaction.
func (s *AssessmentService) Triggers(ctx context.Context, interactionID string) (*TriggerInfo, error) {
	c, err := s.loadCase(ctx, interactionID)
	if err != nil {
		return nil, err
	}
	return &TriggerInfo{
		TriggerFollowUp:     c.TriggerFollowUp,
		TriggerDeepAnalysis: c.TriggerDeepAnalysis,
		EmojiFeedback:       c.InitialSymbol,
		EmojiScore:          c.InitialDelta,
	}, nil
}

// Status computes the pull-based stage view for an interaction.
func (s *AssessmentService) Status(ctx context.Context, interactionID string) (*stager.CaseStatus, error) {
	c, err := s.loadCase(ctx, interactionID)
	if err != nil {
		return nil, err
	}
	status := s.Stager.Status(c, s.now())
	return &status, nil
}

// FollowUpResult reports an accepted stage-two submission.
type FollowUpResult struct {
	Status             stager.CaseStatus `json:"status"`
	NextStageAvailable bool              `json:"next_stage_available"`
}

// SubmitFollowUp validates and applies the stage-two questionnaire.
func (s *AssessmentService) SubmitFollowUp(ctx context.Context, interactionID string, sub *models.FollowUpSubmission) (*FollowUpResult, error) {
	c, err := s.loadCase(ctx, interactionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c, err = s.Cases.Update(interactionID, func(c *models.AssessmentCase) error {
		return s.Stager.CompleteFollowUp(c, sub, now)
	})
	if err != nil {
		return nil, err
	}

	s.persistCase(ctx, c)
	if s.FollowUpRepo != nil {
		record := &models.FollowUpRecord{
			ID:                 uuid.NewString(),
			InteractionID:      interactionID,
			SessionID:          c.SessionID,
			LearnerID:          c.LearnerID,
			Submission:         *sub,
			NextStageAvailable: c.DeepAnalysisEligible,
			SubmittedAt:        now,
		}
		if repoErr := s.FollowUpRepo.Create(ctx, record); repoErr != nil {
			log.Printf("follow-up persistence failed for %s: %v", interactionID, repoErr)
		}
	}

	status := s.Stager.Status(c, now)
	return &FollowUpResult{Status: status, NextStageAvailable: c.DeepAnalysisEligible}, nil
}

// DeepAnalysisResult reports an accepted stage-three submission.
// Recommendations are best-effort enrichment: empty when the content
// service is unavailable, while the completion itself is always recorded.
type DeepAnalysisResult struct {
	Status          stager.CaseStatus `json:"status"`
	Recommendations []string          `json:"recommendations"`
}

// SubmitDeepAnalysis validates and applies the optional stage-three
// payload.
func (s *AssessmentService) SubmitDeepAnalysis(ctx context.Context, interactionID string, sub *models.DeepAnalysisSubmission) (*DeepAnalysisResult, error) {
	c, err := s.loadCase(ctx, interactionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c, err = s.Cases.Update(interactionID, func(c *models.AssessmentCase) error {
		return s.Stager.CompleteDeepAnalysis(c, sub, now)
	})
	if err != nil {
		return nil, err
	}

	s.persistCase(ctx, c)

	recommendations, recErr := s.Recommender.RecommendationsFor(ctx, c, sub)
	if recErr != nil {
		// The stage transition is already recorded; a transient
		// enrichment failure never rolls it back.
		log.Printf("recommendation fetch failed for %s: %v", interactionID, recErr)
		recommendations = nil
	}
	if recommendations == nil {
		recommendations = []string{}
	}

	status := s.Stager.Status(c, now)
	return &DeepAnalysisResult{Status: status, Recommendations: recommendations}, nil
}

// DropSession removes the session's cases everywhere; used on reset.
func (s *AssessmentService) DropSession(ctx context.Context, learnerID, sessionID string) {
	s.Cases.DropSession(learnerID, sessionID)
	if s.CaseRepo != nil {
		if err := s.CaseRepo.DeleteBySession(ctx, learnerID, sessionID); err != nil {
			log.Printf("case cleanup failed for %s/%s: %v", learnerID, sessionID, err)
		}
	}
	if s.FollowUpRepo != nil {
		if err := s.FollowUpRepo.DeleteBySession(ctx, learnerID, sessionID); err != nil {
			log.Printf("follow-up cleanup failed for %s/%s: %v", learnerID, sessionID, err)
		}
	}
}

func (s *AssessmentService) loadCase(ctx context.Context, interactionID string) (*models.AssessmentCase, error) {
	if c, ok := s.Cases.Get(interactionID); ok {
		return c, nil
	}
	if s.CaseRepo != nil {
		c, err := s.CaseRepo.FindByInteraction(ctx, interactionID)
		if err == nil {
			s.Cases.Put(c)
			return c, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
	}
	return nil, store.ErrNotFound
}

func (s *AssessmentService) persistCase(ctx context.Context, c *models.AssessmentCase) {
	if s.CaseRepo == nil {
		return
	}
	if err := s.CaseRepo.Upsert(ctx, c); err != nil {
		log.Printf("case persistence failed for %s: %v", c.InteractionID, err)
	}
}
