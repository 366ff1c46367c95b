package models

import "time"

// AssessmentCase tracks the three feedback-collection stages for a single
// interaction. Stages only move forward; triggers are computed once and
// then frozen.
type AssessmentCase struct {
	ID                      string     `bson:"_id,omitempty" json:"id"`
	LearnerID               string     `bson:"learner_id" json:"learner_id"`
	SessionID               string     `bson:"session_id" json:"session_id"`
	InteractionID           string     `bson:"interaction_id" json:"interaction_id"`
	Stage                   string     `bson:"stage" json:"stage"`
	InitialSymbol           string     `bson:"initial_symbol" json:"initial_symbol"`
	InitialDelta            float64    `bson:"initial_delta" json:"initial_delta"`
	InitialCompletedAt      time.Time  `bson:"initial_completed_at" json:"initial_completed_at"`
	FollowUpEligibleAt      time.Time  `bson:"followup_eligible_at" json:"followup_eligible_at"`
	FollowUpCompletedAt     *time.Time `bson:"followup_completed_at,omitempty" json:"followup_completed_at,omitempty"`
	DeepAnalysisEligible    bool       `bson:"deep_analysis_eligible" json:"deep_analysis_eligible"`
	DeepAnalysisCompletedAt *time.Time `bson:"deep_analysis_completed_at,omitempty" json:"deep_analysis_completed_at,omitempty"`
	TriggerFollowUp         bool       `bson:"trigger_followup" json:"trigger_followup"`
	TriggerDeepAnalysis     bool       `bson:"trigger_deep_analysis" json:"trigger_deep_analysis"`
	Closed                  bool       `bson:"closed" json:"closed"`
}

// FollowUpSubmission is the structured stage-two payload.
type FollowUpSubmission struct {
	ConfidenceLevel     int    `bson:"confidence_level" json:"confidence_level"`
	ApplicationResponse string `bson:"application_response" json:"application_response"`
	Notes               string `bson:"notes,omitempty" json:"notes,omitempty"`
	HasQuestions        bool   `bson:"has_questions" json:"has_questions"`
}

// ConceptLink maps one concept to the learner's own phrasing of it.
type ConceptLink struct {
	Concept       string `bson:"concept" json:"concept"`
	Understanding string `bson:"understanding" json:"understanding"`
}

// DeepAnalysisSubmission is the optional stage-three payload.
type DeepAnalysisSubmission struct {
	ConceptMapping        []ConceptLink `bson:"concept_mapping" json:"concept_mapping"`
	ClarificationRequests []string      `bson:"clarification_requests,omitempty" json:"clarification_requests,omitempty"`
}

// FollowUpRecord is the persisted form of an accepted follow-up together
// with the server-computed next-stage decision.
type FollowUpRecord struct {
	ID                 string             `bson:"_id,omitempty" json:"id"`
	InteractionID      string             `bson:"interaction_id" json:"interaction_id"`
	SessionID          string             `bson:"session_id" json:"session_id"`
	LearnerID          string             `bson:"learner_id" json:"learner_id"`
	Submission         FollowUpSubmission `bson:"submission" json:"submission"`
	NextStageAvailable bool               `bson:"next_stage_available" json:"next_stage_available"`
	SubmittedAt        time.Time          `bson:"submitted_at" json:"submitted_at"`
}
