package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"feedback-service/internal/models"
	"feedback-service/internal/service"
	"feedback-service/internal/stager"
	"feedback-service/internal/store"
)

type AssessmentHandler struct {
	Service *service.AssessmentService
}

func NewAssessmentHandler(s *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{Service: s}
}

// GetTriggers is the read-only poll endpoint for an interaction's frozen
// trigger flags and initial reaction.
func (h *AssessmentHandler) GetTriggers(c *gin.Context) {
	interactionID := c.Param("id")

	info, err := h.Service.Triggers(context.Background(), interactionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No assessment case for interaction"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load triggers", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, info)
}

// GetStatus returns the pull-based stage view, including the follow-up
// countdown re-derived from wall-clock time.
func (h *AssessmentHandler) GetStatus(c *gin.Context) {
	interactionID := c.Param("id")

	status, err := h.Service.Status(context.Background(), interactionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No assessment case for interaction"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load status", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"timestamp": time.Now(),
	})
}

// SubmitFollowUp accepts the stage-two questionnaire once its delay has
// elapsed.
func (h *AssessmentHandler) SubmitFollowUp(c *gin.Context) {
	interactionID := c.Param("id")

	var sub models.FollowUpSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid follow-up format",
			"details": err.Error(),
		})
		return
	}

	result, err := h.Service.SubmitFollowUp(context.Background(), interactionID, &sub)
	if err != nil {
		h.writeStageError(c, err, "follow-up")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":               result.Status,
		"next_stage_available": result.NextStageAvailable,
		"message":              "Follow-up recorded",
	})
}

// SubmitDeepAnalysis accepts the optional stage-three payload. A transient
// recommendation failure yields empty recommendations, never an error.
func (h *AssessmentHandler) SubmitDeepAnalysis(c *gin.Context) {
	interactionID := c.Param("id")

	var sub models.DeepAnalysisSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid deep-analysis format",
			"details": err.Error(),
		})
		return
	}

	result, err := h.Service.SubmitDeepAnalysis(context.Background(), interactionID, &sub)
	if err != nil {
		h.writeStageError(c, err, "deep-analysis")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          result.Status,
		"recommendations": result.Recommendations,
		"message":         "Deep analysis recorded",
	})
}

func (h *AssessmentHandler) writeStageError(c *gin.Context, err error, stage string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "No assessment case for interaction"})
	case errors.Is(err, stager.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + stage + " submission", "details": err.Error()})
	case errors.Is(err, stager.ErrStageCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": "Stage already completed", "code": "STAGE_COMPLETED"})
	case errors.Is(err, stager.ErrStageNotAvailable):
		c.JSON(http.StatusConflict, gin.H{"error": "Stage not available", "code": "STAGE_NOT_AVAILABLE", "details": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process " + stage, "details": err.Error()})
	}
}
