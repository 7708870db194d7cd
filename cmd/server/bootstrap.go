package main

import (
	"context"
	"errors"

	"github.com/seojun-park/mockterview/backend/internal/config"
	"github.com/seojun-park/mockterview/backend/internal/handlers"
	"github.com/seojun-park/mockterview/backend/internal/models"
	"github.com/seojun-park/mockterview/backend/internal/services"
	"github.com/seojun-park/mockterview/backend/internal/utils"
	"github.com/seojun-park/mockterview/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	taskQueue      services.TaskQueue
	worker         *services.Worker
	retryService   *services.AnalysisRetryService
	hub            *services.Hub
	webhookHandler *handlers.WebhookHandler
	attemptHandler *handlers.AttemptHandler
	sseHandler     *handlers.SSEHandler
}

// bootstrap initializes all application dependencies: database, services,
// schedulers, and the analysis message consumer.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Seed default data
	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	// Initialize system logger
	services.InitSystemLogger(models.GetDB())

	// Start system log cleanup scheduler
	services.StartLogCleanupScheduler(models.GetDB())

	db := models.GetDB()

	// Pipeline services
	generator := services.NewModelAnswerService(db, &cfg.AI)
	resultService := services.NewAnalysisResultService(db, generator)
	hub := services.NewHub()
	notificationService := services.NewNotificationService(db, hub)

	// Retry sweeper for parked analysis results
	retryService := services.NewAnalysisRetryService(db, resultService, notificationService)
	if err := retryService.Start(); err != nil {
		logger.Fatalf("Failed to start retry sweeper: %v", err)
	}

	// Initialize task queue (publishes analysis requests; requires Redis)
	taskQueue := services.InitTaskQueue(cfg)

	// Start the analysis consumer if Redis is enabled
	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessors(
				consumeAnalysisResult(resultService, notificationService),
				consumeTranscript(notificationService),
			)
			worker.Start()
		}
	}

	webhookService := services.NewRecordingWebhookService(db, taskQueue, &cfg.Recording)

	return &appServices{
		taskQueue:      taskQueue,
		worker:         worker,
		retryService:   retryService,
		hub:            hub,
		webhookHandler: handlers.NewWebhookHandler(webhookService),
		attemptHandler: handlers.NewAttemptHandler(db),
		sseHandler:     handlers.NewSSEHandler(db, hub),
	}
}

// consumeAnalysisResult persists one result and fans it out. Invalid
// references and parked generations ack the message; other errors trigger
// redelivery, which the idempotent persistence tolerates.
func consumeAnalysisResult(results *services.AnalysisResultService, notifications *services.NotificationService) func(context.Context, *services.AnalysisResult) error {
	return func(ctx context.Context, result *services.AnalysisResult) error {
		modelAnswer, err := results.SaveAnalysisResult(ctx, result)
		switch {
		case err == nil:
			result.ModelAnswer = modelAnswer
			notifications.SendAnalysisResult(result)
			return nil
		case errors.Is(err, services.ErrInvalidReference):
			// Nothing was persisted; still surface the result to listeners.
			notifications.SendAnalysisResult(result)
			return nil
		case errors.Is(err, services.ErrGenerationPending):
			return nil
		default:
			return err
		}
	}
}

// consumeTranscript forwards partial transcripts straight to listeners.
func consumeTranscript(notifications *services.NotificationService) func(context.Context, *services.TranscriptMessage) error {
	return func(ctx context.Context, msg *services.TranscriptMessage) error {
		notifications.SendTranscript(msg)
		return nil
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.retryService.Stop()
	logger.Info().Msg("Retry sweeper stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}
