package stager

import "time"

// Stage names the three ordered feedback-collection phases.
type Stage string

const (
	StageInitial      Stage = "initial"
	StageFollowUp     Stage = "followup"
	StageDeepAnalysis Stage = "deep_analysis"
)

// StageState is the queryable condition of a single stage.
type StageState string

const (
	StateWaiting     StageState = "waiting"
	StateAvailable   StageState = "available"
	StateCompleted   StageState = "completed"
	StateUnavailable StageState = "unavailable"
)

// StagerConfig holds the tunables for stage sequencing.
type StagerConfig struct {
	FollowUpDelay time.Duration `json:"followup_delay"`
	// MinApplicationResponse is the minimum trimmed length of the
	// application-understanding answer in a follow-up submission.
	MinApplicationResponse int `json:"min_application_response"`
	// LowConfidenceMax is the highest confidence level that still arms
	// deep analysis on its own.
	LowConfidenceMax int `json:"low_confidence_max"`
}

// DefaultStagerConfig returns the production sequencing tunables.
func DefaultStagerConfig() *StagerConfig {
	return &StagerConfig{
		FollowUpDelay:          30 * time.Second,
		MinApplicationResponse: 10,
		LowConfidenceMax:       2,
	}
}

// StageStatus describes one stage in a case status snapshot.
type StageStatus struct {
	Stage            Stage      `json:"stage"`
	State            StageState `json:"state"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CountdownSeconds int        `json:"countdown_seconds,omitempty"`
}

// CaseStatus is the full pull-based view of an assessment case at a point
// in time.
type CaseStatus struct {
	InteractionID string        `json:"interaction_id"`
	Stage         Stage         `json:"stage"`
	Stages        []StageStatus `json:"stages"`
	Terminal      bool          `json:"terminal"`
}
