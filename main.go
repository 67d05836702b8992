package main

import (
	"context"
	"log"
	"time"

	"review-service/internal/config"
	"review-service/internal/db"
	"review-service/internal/event"
	"review-service/internal/handlers"
	"review-service/internal/repository"
	"review-service/internal/scheduler"
	"review-service/internal/service"
	"review-service/internal/srs"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	cfg := config.New()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if cfg.MongoURI == "" {
		logger.Fatal("MONGO_URI is required")
	}
	if err := db.InitMongo(cfg.MongoURI, cfg.MongoDatabase); err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer db.Disconnect()

	var publisher *event.Publisher
	if cfg.RabbitMQURI != "" && cfg.RabbitMQExchange != "" {
		publisher, err = event.NewPublisher(cfg.RabbitMQURI, cfg.RabbitMQExchange, logger)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer publisher.Close()
	} else {
		logger.Info("RabbitMQ not configured, domain events will not be published")
	}

	params := &srs.Params{
		GraduationThreshold: cfg.GraduationAttempts,
		FailurePenalty:      cfg.FailurePenalty,
		MinConfidence:       cfg.MinConfidence,
		MaxConfidence:       cfg.MaxConfidence,
	}

	// Cards
	cardRepo := repository.NewCardRepository(db.Database)
	cardService := service.NewCardService(cardRepo, params, publisher, logger)
	cardHandler := handlers.NewCardHandler(cardService)

	// Calendar events
	eventRepo := repository.NewEventRepository(db.Database)
	eventService := service.NewEventService(eventRepo, publisher, logger)
	eventHandler := handlers.NewEventHandler(eventService)

	// Background passes
	jitService := service.NewSchedulerService(cardRepo, eventRepo, publisher, logger)
	evictionService := service.NewEvictionService(eventRepo, service.EvictionConfig{
		RetentionDays: cfg.EvictionRetention,
		BatchSize:     cfg.EvictionBatchSize,
		Workers:       cfg.EvictionWorkers,
	}, publisher, logger)
	adminHandler := handlers.NewAdminHandler(evictionService, jitService)

	runner := scheduler.NewRunner(jitService, evictionService, scheduler.RunnerConfig{
		Hour:          cfg.EvictionHour,
		CheckInterval: time.Minute,
	}, logger)
	runnerCtx, cancelRunner := context.WithCancel(context.Background())
	defer cancelRunner()
	go runner.Start(runnerCtx)
	defer runner.Stop()

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FEAddress},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	publicReview := r.Group("/public/review/user")
	{
		publicReview.GET("/:id/due", cardHandler.GetDueCards)
		publicReview.GET("/:id/due-on", cardHandler.GetCardsDueOn)
		publicReview.GET("/:id/stats", cardHandler.GetStats)
	}

	protectedReview := r.Group("/protected/review")
	{
		protectedReview.POST("/mistakes", cardHandler.CreateFromMistakes)
		protectedReview.POST("/card/:id/review", cardHandler.SubmitReview)
	}

	publicCalendar := r.Group("/public/calendar/user")
	{
		publicCalendar.GET("/:id", eventHandler.GetEventsInRange)
	}

	protectedCalendar := r.Group("/protected/calendar")
	{
		protectedCalendar.POST("/", eventHandler.CreateRootEvent)
		protectedCalendar.POST("/suggestion", eventHandler.AcceptAiSuggestion)
		protectedCalendar.PUT("/:id/complete", eventHandler.MarkCompleted)
		protectedCalendar.DELETE("/:id", eventHandler.DeleteEvent)
	}

	protectedAdmin := r.Group("/protected/admin")
	{
		protectedAdmin.POST("/eviction/run", adminHandler.RunEviction)
		protectedAdmin.POST("/scheduler/run", adminHandler.RunScheduler)
	}

	logger.Info("review-service listening", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Server exited", zap.Error(err))
	}
}
