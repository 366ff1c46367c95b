package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"feedback-service/internal/service"
	"feedback-service/internal/store"
)

type FeedbackHandler struct {
	Service           *service.FeedbackService
	AssessmentService *service.AssessmentService
}

func NewFeedbackHandler(s *service.FeedbackService, as *service.AssessmentService) *FeedbackHandler {
	return &FeedbackHandler{
		Service:           s,
		AssessmentService: as,
	}
}

// SubmitReaction ingests one emoji reaction and opens the interaction's
// assessment case. Safe to retry: a duplicate interaction id is rejected
// with 409 and no re-scoring.
func (h *FeedbackHandler) SubmitReaction(c *gin.Context) {
	var req struct {
		SessionID     string `json:"session_id" binding:"required"`
		InteractionID string `json:"interaction_id" binding:"required"`
		Symbol        string `json:"symbol" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	learnerID := c.GetHeader("X-User-ID")
	result, err := h.Service.IngestReaction(context.Background(), learnerID, req.SessionID, req.InteractionID, req.Symbol)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reaction", "details": err.Error()})
		case errors.Is(err, store.ErrDuplicate):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Reaction already recorded for this interaction",
				"code":  "DUPLICATE_REACTION",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process reaction", "details": err.Error()})
		}
		return
	}

	assessmentCase := h.AssessmentService.OpenCase(context.Background(), result.Event)

	c.JSON(http.StatusOK, gin.H{
		"score":            result.Score,
		"band":             result.Band,
		"band_label":       result.BandLabel,
		"delta":            result.Delta,
		"band_changed":     result.BandChanged,
		"statistics":       result.Statistics,
		"assessment_case":  assessmentCase.ID,
		"trigger_followup": assessmentCase.TriggerFollowUp,
	})
}

// GetState returns the current ScoreState snapshot. Callable before any
// feedback exists: responds with initialized=false instead of an error.
func (h *FeedbackHandler) GetState(c *gin.Context) {
	learnerID := c.GetHeader("X-User-ID")
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	resp, err := h.Service.GetState(context.Background(), learnerID, sessionID, c.Query("last_query"), c.Query("last_context"))
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load state", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state":     resp,
		"timestamp": time.Now(),
	})
}

// GetHistory lists the session's accepted reactions in order.
func (h *FeedbackHandler) GetHistory(c *gin.Context) {
	learnerID := c.GetHeader("X-User-ID")
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	events, err := h.Service.History(context.Background(), learnerID, sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reactions":  events,
		"count":      len(events),
		"session_id": sessionID,
	})
}

// ResetSession returns the learner's session to the neutral score and
// clears its assessment cases so recalibration starts fresh.
func (h *FeedbackHandler) ResetSession(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	learnerID := c.GetHeader("X-User-ID")
	state, err := h.Service.Reset(context.Background(), learnerID, req.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset session", "details": err.Error()})
		return
	}

	h.AssessmentService.DropSession(context.Background(), learnerID, req.SessionID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Session reset successfully",
		"state":   state,
	})
}

// HealthCheck reports service liveness.
func (h *FeedbackHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":   "feedback-service",
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}
