package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"feedback-service/internal/adaptive"
	"feedback-service/internal/cache"
	"feedback-service/internal/db"
	"feedback-service/internal/event"
	"feedback-service/internal/handlers"
	"feedback-service/internal/models"
	"feedback-service/internal/recommend"
	"feedback-service/internal/repository"
	"feedback-service/internal/service"
	"feedback-service/internal/stager"
	"feedback-service/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		log.Fatal("MONGO_URI is required")
	}
	db.InitMongo(mongoURI)

	// RabbitMQ event publisher
	rabbitURL := os.Getenv("RABBITMQ_URI")
	eventExchange := os.Getenv("RABBITMQ_EXCHANGE")
	var publisher *event.EventPublisher
	if rabbitURL != "" && eventExchange != "" {
		var err error
		publisher, err = event.NewEventPublisher(rabbitURL, eventExchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, feedback events will not be published")
	}

	database := db.Client.Database("feedback_service")

	// Repositories
	scoreRepo := repository.NewScoreRepository(database)
	reactionRepo := repository.NewReactionRepository(database)
	caseRepo := repository.NewCaseRepository(database)
	followUpRepo := repository.NewFollowUpRepository(database)

	// Optional last-known-good snapshot cache
	var stateCache cache.StateCache
	if redisClient := db.InitRedis(); redisClient != nil {
		stateCache = cache.NewStateCache(redisClient, 24*time.Hour)
	}

	// Recommendation boundary
	var recommender recommend.Recommender = recommend.NopRecommender{}
	if contentURL := os.Getenv("CONTENT_SERVICE_URL"); contentURL != "" {
		recommender = recommend.NewHTTPRecommender(contentURL)
	}

	// Core controller wiring
	adaptiveConfig := adaptive.DefaultAdaptiveConfig()
	if err := adaptiveConfig.Check(); err != nil {
		log.Fatalf("Invalid adaptive config: %v", err)
	}
	manager := adaptive.NewManager(adaptiveConfig)
	scoreStore := store.NewScoreStore(manager, &persistence{scoreRepo, reactionRepo})
	caseStore := store.NewCaseStore()
	stageSequencer := stager.NewStager(stagerConfigFromEnv())

	feedbackService := service.NewFeedbackService(scoreStore, scoreRepo, reactionRepo, stateCache)
	assessmentService := service.NewAssessmentService(stageSequencer, caseStore, caseRepo, followUpRepo, recommender)

	feedbackHandler := handlers.NewFeedbackHandler(feedbackService, assessmentService)
	assessmentHandler := handlers.NewAssessmentHandler(assessmentService)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "https://evolvia.phrimp.io.vn"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	setupFeedbackRoutes(r, feedbackHandler, assessmentHandler, publisher)

	port := os.Getenv("PORT")
	if port == "" {
		port = "6677"
	}
	r.Run(":" + port)
}

// persistence adapts the mongo repositories to the score store's
// write-through interface.
type persistence struct {
	scores    *repository.ScoreRepository
	reactions *repository.ReactionRepository
}

func (p *persistence) SaveScoreState(ctx context.Context, state *models.ScoreState) error {
	return p.scores.Upsert(ctx, state)
}

func (p *persistence) SaveReaction(ctx context.Context, event *models.ReactionEvent) error {
	return p.reactions.Create(ctx, event)
}

func stagerConfigFromEnv() *stager.StagerConfig {
	config := stager.DefaultStagerConfig()
	if raw := os.Getenv("FOLLOWUP_DELAY_SECONDS"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			config.FollowUpDelay = time.Duration(seconds) * time.Second
		}
	}
	return config
}

func setupFeedbackRoutes(r *gin.Engine, feedbackHandler *handlers.FeedbackHandler, assessmentHandler *handlers.AssessmentHandler, publisher *event.EventPublisher) {
	// Protected routes require a gateway-resolved user id
	protected := r.Group("/protected/feedback")
	protected.Use(func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
				"code":  "MISSING_USER_ID",
			})
			c.Abort()
			return
		}
		c.Next()
	})

	{
		// === SCORING ===

		// Ingest an emoji reaction (idempotent per interaction)
		protected.POST("/reaction", func(c *gin.Context) {
			feedbackHandler.SubmitReaction(c)
			if publisher != nil {
				publisher.Publish("feedback.reaction.submitted", gin.H{
					"user_id":   c.GetHeader("X-User-ID"),
					"timestamp": time.Now(),
				})
			}
		})

		// Current comprehension state snapshot
		protected.GET("/state", func(c *gin.Context) {
			feedbackHandler.GetState(c)
			if publisher != nil {
				publisher.Publish("feedback.state.queried", gin.H{
					"user_id":    c.GetHeader("X-User-ID"),
					"session_id": c.Query("session_id"),
					"timestamp":  time.Now(),
				})
			}
		})

		// Accepted reactions for a session
		protected.GET("/history", func(c *gin.Context) {
			feedbackHandler.GetHistory(c)
			if publisher != nil {
				publisher.Publish("feedback.history.queried", gin.H{
					"user_id":    c.GetHeader("X-User-ID"),
					"session_id": c.Query("session_id"),
					"timestamp":  time.Now(),
				})
			}
		})

		// Recalibrate: back to the neutral score
		protected.POST("/reset", func(c *gin.Context) {
			feedbackHandler.ResetSession(c)
			if publisher != nil {
				publisher.Publish("feedback.session.reset", gin.H{
					"user_id":   c.GetHeader("X-User-ID"),
					"timestamp": time.Now(),
				})
			}
		})

		// === STAGED ASSESSMENT ===

		// Detailed per-stage status with follow-up countdown
		protected.GET("/interaction/:id/status", func(c *gin.Context) {
			assessmentHandler.GetStatus(c)
			if publisher != nil {
				publisher.Publish("feedback.case.status_checked", gin.H{
					"interaction_id": c.Param("id"),
					"user_id":        c.GetHeader("X-User-ID"),
					"timestamp":      time.Now(),
				})
			}
		})

		// Stage-two questionnaire submission
		protected.POST("/interaction/:id/followup", func(c *gin.Context) {
			assessmentHandler.SubmitFollowUp(c)
			if publisher != nil {
				publisher.Publish("feedback.followup.submitted", gin.H{
					"interaction_id": c.Param("id"),
					"user_id":        c.GetHeader("X-User-ID"),
					"timestamp":      time.Now(),
				})
			}
		})

		// Stage-three deep-analysis submission
		protected.POST("/interaction/:id/deep-analysis", func(c *gin.Context) {
			assessmentHandler.SubmitDeepAnalysis(c)
			if publisher != nil {
				publisher.Publish("feedback.deep_analysis.submitted", gin.H{
					"interaction_id": c.Param("id"),
					"user_id":        c.GetHeader("X-User-ID"),
					"timestamp":      time.Now(),
				})
			}
		})
	}

	// === PUBLIC ROUTES ===
	public := r.Group("/public/feedback")
	{
		// Poll-safe trigger check
		public.GET("/interaction/:id/triggers", func(c *gin.Context) {
			assessmentHandler.GetTriggers(c)
			if publisher != nil {
				publisher.Publish("feedback.triggers.checked", gin.H{
					"interaction_id": c.Param("id"),
					"timestamp":      time.Now(),
				})
			}
		})

		public.GET("/health", feedbackHandler.HealthCheck)
	}
}
