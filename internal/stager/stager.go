package stager

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"feedback-service/internal/models"
)

var (
	// ErrValidation marks a malformed stage submission. The case is left
	// untouched.
	ErrValidation = errors.New("validation failed")
	// ErrStageNotAvailable marks a submission for a stage that is not
	// currently available.
	ErrStageNotAvailable = errors.New("stage not available")
	// ErrStageCompleted marks a repeated submission for a completed stage.
	ErrStageCompleted = errors.New("stage already completed")
)

// Stager sequences the three assessment stages for an interaction. All
// eligibility checks are pull-based against the supplied clock, so a
// restarted process recovers without re-arming anything.
type Stager struct {
	config *StagerConfig
}

// NewStager creates a stager with the given config, falling back to
// defaults.
func NewStager(config *StagerConfig) *Stager {
	if config == nil {
		config = DefaultStagerConfig()
	}
	return &Stager{config: config}
}

// OpenCase creates the assessment case for an interaction's first accepted
// reaction. Initial is completed immediately; the follow-up trigger and its
// eligibility time are computed once here and then frozen.
func (s *Stager) OpenCase(event *models.ReactionEvent, now time.Time) *models.AssessmentCase {
	return &models.AssessmentCase{
		ID:                 uuid.NewString(),
		LearnerID:          event.LearnerID,
		SessionID:          event.SessionID,
		InteractionID:      event.InteractionID,
		Stage:              string(StageInitial),
		InitialSymbol:      event.Symbol,
		InitialDelta:       event.DeltaApplied,
		InitialCompletedAt: now,
		FollowUpEligibleAt: now.Add(s.config.FollowUpDelay),
		TriggerFollowUp:    evaluateInitialTrigger(event),
	}
}

// Status computes the current pull-based view of a case. The follow-up
// countdown is re-derived from wall-clock time on every call rather than
// trusting any previously fired timer.
func (s *Stager) Status(c *models.AssessmentCase, now time.Time) CaseStatus {
	initial := StageStatus{
		Stage:       StageInitial,
		State:       StateCompleted,
		CompletedAt: &c.InitialCompletedAt,
	}

	followUp := StageStatus{Stage: StageFollowUp, State: StateUnavailable}
	switch {
	case c.FollowUpCompletedAt != nil:
		followUp.State = StateCompleted
		followUp.CompletedAt = c.FollowUpCompletedAt
	case c.Closed || !c.TriggerFollowUp:
		followUp.State = StateUnavailable
	case now.Before(c.FollowUpEligibleAt):
		followUp.State = StateWaiting
		followUp.CountdownSeconds = int(c.FollowUpEligibleAt.Sub(now).Seconds()) + 1
	default:
		followUp.State = StateAvailable
	}

	deep := StageStatus{Stage: StageDeepAnalysis, State: StateUnavailable}
	switch {
	case c.DeepAnalysisCompletedAt != nil:
		deep.State = StateCompleted
		deep.CompletedAt = c.DeepAnalysisCompletedAt
	case c.Closed:
		deep.State = StateUnavailable
	case c.DeepAnalysisEligible:
		deep.State = StateAvailable
	case c.FollowUpCompletedAt == nil && followUp.State != StateUnavailable:
		// Might still become eligible once the follow-up completes.
		deep.State = StateWaiting
	}

	return CaseStatus{
		InteractionID: c.InteractionID,
		Stage:         Stage(c.Stage),
		Stages:        []StageStatus{initial, followUp, deep},
		Terminal:      s.isTerminal(c, followUp.State, deep.State),
	}
}

func (s *Stager) isTerminal(c *models.AssessmentCase, followUp, deep StageState) bool {
	if c.Closed {
		return true
	}
	followUpDone := followUp == StateCompleted || followUp == StateUnavailable
	deepDone := deep == StateCompleted || deep == StateUnavailable
	return followUpDone && deepDone
}

// CompleteFollowUp validates and applies a stage-two submission. On success
// the deep-analysis trigger is computed from the submission's own signals
// and frozen.
func (s *Stager) CompleteFollowUp(c *models.AssessmentCase, sub *models.FollowUpSubmission, now time.Time) error {
	if c.FollowUpCompletedAt != nil {
		return ErrStageCompleted
	}
	if c.Closed || !c.TriggerFollowUp {
		return ErrStageNotAvailable
	}
	if now.Before(c.FollowUpEligibleAt) {
		return fmt.Errorf("%w: follow-up opens in %ds", ErrStageNotAvailable,
			int(c.FollowUpEligibleAt.Sub(now).Seconds())+1)
	}
	if err := s.validateFollowUp(sub); err != nil {
		return err
	}

	completed := now
	c.FollowUpCompletedAt = &completed
	c.Stage = string(StageFollowUp)
	c.TriggerDeepAnalysis = evaluateFollowUpTrigger(s.config, sub)
	c.DeepAnalysisEligible = c.TriggerDeepAnalysis
	return nil
}

// CompleteDeepAnalysis applies a stage-three submission. Deep analysis can
// never complete before it became available.
func (s *Stager) CompleteDeepAnalysis(c *models.AssessmentCase, sub *models.DeepAnalysisSubmission, now time.Time) error {
	if c.DeepAnalysisCompletedAt != nil {
		return ErrStageCompleted
	}
	if c.Closed || !c.DeepAnalysisEligible {
		return ErrStageNotAvailable
	}
	if err := s.validateDeepAnalysis(sub); err != nil {
		return err
	}

	completed := now
	c.DeepAnalysisCompletedAt = &completed
	c.Stage = string(StageDeepAnalysis)
	return nil
}

func (s *Stager) validateFollowUp(sub *models.FollowUpSubmission) error {
	if sub == nil {
		return fmt.Errorf("%w: missing payload", ErrValidation)
	}
	if sub.ConfidenceLevel < 1 || sub.ConfidenceLevel > 5 {
		return fmt.Errorf("%w: confidence level must be between 1 and 5", ErrValidation)
	}
	if len(strings.TrimSpace(sub.ApplicationResponse)) < s.config.MinApplicationResponse {
		return fmt.Errorf("%w: application response must be at least %d characters",
			ErrValidation, s.config.MinApplicationResponse)
	}
	return nil
}

func (s *Stager) validateDeepAnalysis(sub *models.DeepAnalysisSubmission) error {
	if sub == nil {
		return fmt.Errorf("%w: missing payload", ErrValidation)
	}
	if len(sub.ConceptMapping) == 0 && len(sub.ClarificationRequests) == 0 {
		return fmt.Errorf("%w: submission must contain concept mappings or clarification requests", ErrValidation)
	}
	for _, link := range sub.ConceptMapping {
		if strings.TrimSpace(link.Concept) == "" {
			return fmt.Errorf("%w: concept mapping entries need a concept", ErrValidation)
		}
	}
	return nil
}
