package services

import (
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/seojun-park/mockterview/backend/internal/config"
	"github.com/seojun-park/mockterview/backend/internal/identity"
	"github.com/seojun-park/mockterview/backend/internal/models"
	"github.com/seojun-park/mockterview/backend/pkg/logger"
	"gorm.io/gorm"
)

// Only this event/status combination marks a finished recording; the recorder
// emits many intermediate events that are ignored silently.
const (
	recordingReadyEvent  = "recordingStatusChanged"
	recordingReadyStatus = "ready"
)

// RecordingEvent is the webhook payload from the external recording service.
// ID is the wire-format recording id.
type RecordingEvent struct {
	Event  string `json:"event"`
	Status string `json:"status"`
	ID     string `json:"id"`
}

// RecordingWebhookService ingests recording-ready events: it transitions the
// matching attempt to PROCESSING, attaches the video location, stamps the
// interview as finished, and then publishes an analysis request. The state
// change is committed before the publish so a lost transition can never be
// analyzed.
type RecordingWebhookService struct {
	db           *gorm.DB
	queue        TaskQueue
	recordingCfg *config.RecordingConfig
}

func NewRecordingWebhookService(db *gorm.DB, queue TaskQueue, recordingCfg *config.RecordingConfig) *RecordingWebhookService {
	return &RecordingWebhookService{
		db:           db,
		queue:        queue,
		recordingCfg: recordingCfg,
	}
}

// ProcessRecordingEvent handles one webhook event. Non-ready events are a
// silent no-op. Errors are returned for logging only; the webhook endpoint
// acks unconditionally.
func (s *RecordingWebhookService) ProcessRecordingEvent(event *RecordingEvent) error {
	if event.Event != recordingReadyEvent || event.Status != recordingReadyStatus {
		return nil
	}

	id, err := identity.ParseRecordingID(event.ID)
	if err != nil {
		LogError("Webhook", "BadRecordingID", "Unparsable recording id: "+event.ID, map[string]interface{}{
			"recording_id": event.ID,
		})
		return fmt.Errorf("parse recording id: %w", err)
	}

	logger.Infof("[Webhook] Recording ready: root=%s, attempt=%d", id.RootUUID, id.AttemptNumber)

	videoURL := fmt.Sprintf("%s/%s/%s.mp4", s.recordingCfg.BaseURL, event.ID, event.ID)
	videoFilePath := path.Join(s.recordingCfg.FilePath, event.ID, event.ID+".mp4")

	err = s.db.Transaction(func(tx *gorm.DB) error {
		attempts := NewAttemptService(tx)

		ref, err := attempts.Resolve(id)
		if err != nil {
			return err
		}

		if err := attempts.UpdateStatus(ref, models.AttemptProcessing); err != nil {
			return err
		}
		if err := attempts.SetVideoPath(ref, videoURL); err != nil {
			return err
		}

		interview, err := attempts.Interview(ref)
		if err != nil {
			return err
		}
		now := time.Now()
		return tx.Model(interview).Update("finished_at", &now).Error
	})
	if err != nil {
		if errors.Is(err, ErrAttemptNotFound) {
			LogError("Webhook", "AttemptNotFound", "No attempt matches recording: "+event.ID, map[string]interface{}{
				"recording_id": event.ID,
			})
		} else {
			LogError("Webhook", "ProcessingFailed", "Recording event processing failed: "+event.ID, map[string]interface{}{
				"recording_id": event.ID,
				"error":        err.Error(),
			})
		}
		return fmt.Errorf("resolve recording %s: %w", event.ID, err)
	}

	logger.Infof("[Webhook] Publishing analysis request: %s", event.ID)
	if err := s.queue.PublishAnalysisRequest(&AnalysisRequest{
		RecordingID:   event.ID,
		VideoFilePath: videoFilePath,
	}); err != nil {
		// Fire-and-forget: the request is lost, the attempt stays PROCESSING.
		logger.Errorf("[Webhook] Failed to publish analysis request for %s: %v", event.ID, err)
		LogError("Webhook", "PublishFailed", "Analysis request lost: "+event.ID, map[string]interface{}{
			"recording_id": event.ID,
		})
	}
	return nil
}
