package stager

import "feedback-service/internal/models"

// evaluateInitialTrigger decides whether stage two can ever open. Every
// recorded reaction arms the follow-up, including positive ones: a thumbs
// up can hide shallow understanding that only the structured questionnaire
// surfaces.
func evaluateInitialTrigger(event *models.ReactionEvent) bool {
	return event != nil && event.Symbol != ""
}

// evaluateFollowUpTrigger decides whether deep analysis becomes available,
// from the follow-up's own signals only: low confidence or open questions.
func evaluateFollowUpTrigger(config *StagerConfig, sub *models.FollowUpSubmission) bool {
	if sub == nil {
		return false
	}
	return sub.ConfidenceLevel <= config.LowConfidenceMax || sub.HasQuestions
}
