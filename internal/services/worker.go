package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/seojun-park/mockterview/backend/internal/config"
	"github.com/seojun-park/mockterview/backend/pkg/logger"
)

// Worker consumes the analysis result and transcript channels. Malformed
// payloads are logged and dropped (SkipRetry); processor errors are returned
// so the broker redelivers, relying on the processors being idempotent on
// recording id.
type Worker struct {
	server              *asynq.Server
	mux                 *asynq.ServeMux
	resultProcessor     func(context.Context, *AnalysisResult) error
	transcriptProcessor func(context.Context, *TranscriptMessage) error
	wg                  sync.WaitGroup
	running             bool
	mu                  sync.Mutex
}

// NewWorker creates a new worker instance
func NewWorker(cfg *config.RedisConfig) *Worker {
	if !cfg.Enabled {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"analysis": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Errorf("[Worker] Error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

// SetProcessors sets the handlers for the two inbound channels
func (w *Worker) SetProcessors(
	result func(context.Context, *AnalysisResult) error,
	transcript func(context.Context, *TranscriptMessage) error,
) {
	w.resultProcessor = result
	w.transcriptProcessor = transcript
}

// Start begins consuming the result and transcript channels
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeAnalysisResult, w.handleAnalysisResult)
	w.mux.HandleFunc(TaskTypeTranscript, w.handleTranscript)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[Worker] Starting analysis consumer...")
		if err := w.server.Run(w.mux); err != nil {
			logger.Errorf("[Worker] Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Infof("[Worker] Shutting down...")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Infof("[Worker] Shutdown complete")
}

// handleAnalysisResult processes one full analysis result message
func (w *Worker) handleAnalysisResult(ctx context.Context, t *asynq.Task) error {
	var result AnalysisResult
	if err := json.Unmarshal(t.Payload(), &result); err != nil {
		logger.Errorf("[Worker] Malformed analysis result dropped: %v", err)
		return fmt.Errorf("malformed analysis result: %v: %w", err, asynq.SkipRetry)
	}

	logger.Infof("[Worker] Analysis result received: recording=%s, transcript=%d chars",
		result.RecordingID, len(result.Transcript))

	if w.resultProcessor == nil {
		logger.Warnf("[Worker] No result processor set")
		return nil
	}

	return w.resultProcessor(ctx, &result)
}

// handleTranscript processes one partial transcript message
func (w *Worker) handleTranscript(ctx context.Context, t *asynq.Task) error {
	var msg TranscriptMessage
	if err := json.Unmarshal(t.Payload(), &msg); err != nil {
		logger.Errorf("[Worker] Malformed transcript message dropped: %v", err)
		return fmt.Errorf("malformed transcript message: %v: %w", err, asynq.SkipRetry)
	}

	logger.Infof("[Worker] Transcript received: recording=%s", msg.AnswerAttemptUUID)

	if w.transcriptProcessor == nil {
		logger.Warnf("[Worker] No transcript processor set")
		return nil
	}

	return w.transcriptProcessor(ctx, &msg)
}

// Global worker instance
var (
	globalWorker *Worker
	workerOnce   sync.Once
)

// InitWorker initializes the global worker
func InitWorker(cfg *config.RedisConfig) *Worker {
	workerOnce.Do(func() {
		globalWorker = NewWorker(cfg)
	})
	return globalWorker
}

// GetWorker returns the global worker instance
func GetWorker() *Worker {
	return globalWorker
}
