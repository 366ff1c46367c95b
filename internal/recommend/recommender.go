package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"feedback-service/internal/models"
)

// ErrTransient marks a downstream content-service failure. Callers record
// the stage completion regardless and return empty recommendations.
var ErrTransient = errors.New("recommendation service unavailable")

// Recommender fetches study recommendations after a deep-analysis
// submission. Recommendation generation lives in the content service; this
// is only the boundary.
type Recommender interface {
	RecommendationsFor(ctx context.Context, c *models.AssessmentCase, sub *models.DeepAnalysisSubmission) ([]string, error)
}

// HTTPRecommender calls the content service over HTTP.
type HTTPRecommender struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRecommender(baseURL string) *HTTPRecommender {
	return &HTTPRecommender{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (r *HTTPRecommender) RecommendationsFor(ctx context.Context, c *models.AssessmentCase, sub *models.DeepAnalysisSubmission) ([]string, error) {
	payload := map[string]interface{}{
		"learner_id":     c.LearnerID,
		"session_id":     c.SessionID,
		"interaction_id": c.InteractionID,
		"submission":     sub,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/internal/content/recommendations", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrTransient, resp.StatusCode)
	}

	var result struct {
		Recommendations []string `json:"recommendations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return result.Recommendations, nil
}

// NopRecommender is used when no content service is configured.
type NopRecommender struct{}

func (NopRecommender) RecommendationsFor(context.Context, *models.AssessmentCase, *models.DeepAnalysisSubmission) ([]string, error) {
	return nil, nil
}
