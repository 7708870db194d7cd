package services

import (
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/seojun-park/mockterview/backend/internal/config"
	"github.com/seojun-park/mockterview/backend/pkg/logger"
)

// TaskQueue publishes analysis requests to the external worker's channel.
// Delivery is fire-and-forget: a failed publish is logged and lost, never
// retried here; the consumer side is idempotent to tolerate redelivery.
type TaskQueue interface {
	// PublishAnalysisRequest sends one request to the analysis request channel
	PublishAnalysisRequest(req *AnalysisRequest) error
	// IsAsync returns true if a broker backs the queue
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// Global task queue instance
var (
	globalTaskQueue TaskQueue
	taskQueueOnce   sync.Once
)

// InitTaskQueue initializes the global task queue based on config
func InitTaskQueue(cfg *config.Config) TaskQueue {
	taskQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncQueue(&cfg.Redis)
			if err != nil {
				logger.Warnf("[TaskQueue] Redis unavailable, falling back to no-broker mode: %v", err)
				globalTaskQueue = NewSyncQueue()
			} else {
				logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalTaskQueue = queue
			}
		} else {
			logger.Infof("[TaskQueue] No-broker queue initialized (Redis disabled)")
			globalTaskQueue = NewSyncQueue()
		}
	})
	return globalTaskQueue
}

// GetTaskQueue returns the global task queue instance
func GetTaskQueue() TaskQueue {
	return globalTaskQueue
}

// AsyncQueue implements TaskQueue using asynq (Redis-based)
type AsyncQueue struct {
	client *asynq.Client
}

// NewAsyncQueue creates a new Redis-based async queue
func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Test connection by pinging Redis
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	_, err := inspector.Queues()
	if err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

// PublishAnalysisRequest enqueues an analysis request on the request channel
func (q *AsyncQueue) PublishAnalysisRequest(req *AnalysisRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeAnalysisRequest, payload)
	info, err := q.client.Enqueue(t, asynq.Queue("analysis"))
	if err != nil {
		return err
	}

	logger.Infof("[AsyncQueue] Analysis request published: id=%s, recording=%s", info.ID, req.RecordingID)
	return nil
}

// IsAsync returns true for async queue
func (q *AsyncQueue) IsAsync() bool {
	return true
}

// Close closes the async queue client
func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue implements TaskQueue without a broker. The analysis worker is an
// external process, so without Redis there is nobody to receive requests:
// they are logged and dropped.
type SyncQueue struct{}

// NewSyncQueue creates a new broker-less queue
func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

// PublishAnalysisRequest logs and drops the request
func (q *SyncQueue) PublishAnalysisRequest(req *AnalysisRequest) error {
	logger.Warnf("[SyncQueue] No broker configured, analysis request dropped: recording=%s", req.RecordingID)
	return nil
}

// IsAsync returns false for the broker-less queue
func (q *SyncQueue) IsAsync() bool {
	return false
}

// Close is a no-op for the broker-less queue
func (q *SyncQueue) Close() error {
	return nil
}
