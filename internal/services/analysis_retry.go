package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/seojun-park/mockterview/backend/internal/identity"
	"github.com/seojun-park/mockterview/backend/internal/models"
	"github.com/seojun-park/mockterview/backend/pkg/logger"
	"gorm.io/gorm"
)

// maxRetryCount bounds generation retries for a parked result; once exhausted
// the attempt is marked FAILED and the payload discarded.
const maxRetryCount = 3

// AnalysisRetryService sweeps parked analysis results and re-runs model-answer
// generation with exponential backoff. Successful retries complete the attempt
// and notify the owner exactly as the direct path would have.
type AnalysisRetryService struct {
	db            *gorm.DB
	results       *AnalysisResultService
	notifications *NotificationService
	cron          *cron.Cron
}

func NewAnalysisRetryService(db *gorm.DB, results *AnalysisResultService, notifications *NotificationService) *AnalysisRetryService {
	return &AnalysisRetryService{
		db:            db,
		results:       results,
		notifications: notifications,
		cron:          cron.New(),
	}
}

// Start schedules the sweep every minute.
func (s *AnalysisRetryService) Start() error {
	if _, err := s.cron.AddFunc("@every 1m", s.Sweep); err != nil {
		return err
	}
	s.cron.Start()
	logger.Infof("[AnalysisRetry] Retry sweeper started")
	return nil
}

// Stop halts the scheduler; a sweep in flight finishes.
func (s *AnalysisRetryService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Sweep retries every parked result whose backoff has elapsed.
func (s *AnalysisRetryService) Sweep() {
	var pendings []models.PendingAnalysis
	if err := s.db.Where("next_retry_at <= ?", time.Now()).Find(&pendings).Error; err != nil {
		logger.Errorf("[AnalysisRetry] Failed to load pending analyses: %v", err)
		return
	}

	for i := range pendings {
		s.retry(&pendings[i])
	}
}

func (s *AnalysisRetryService) retry(pending *models.PendingAnalysis) {
	id, err := identity.ParseRecordingID(pending.RecordingID)
	if err != nil {
		// Cannot happen for rows parked by the result path; drop defensively.
		s.db.Delete(pending)
		return
	}

	attempts := NewAttemptService(s.db)
	ref, err := attempts.Resolve(id)
	if err != nil {
		if errors.Is(err, ErrAttemptNotFound) {
			logger.Warnf("[AnalysisRetry] Attempt gone for %s, dropping parked result", pending.RecordingID)
			s.db.Delete(pending)
		}
		return
	}

	gc, err := attempts.GenerationContext(ref)
	if err != nil {
		logger.Errorf("[AnalysisRetry] Context load failed for %s: %v", pending.RecordingID, err)
		return
	}

	logger.Infof("[AnalysisRetry] Retrying generation for %s (attempt %d/%d)",
		pending.RecordingID, pending.RetryCount+1, maxRetryCount)

	answer, genErr := s.results.generator.Generate(context.Background(), gc, pending.Transcript)
	if genErr != nil {
		s.recordFailure(ref, pending, genErr)
		return
	}

	if err := s.results.persist(ref, pending.RecordingID, pending.Transcript,
		pending.SegmentJSON, pending.ExpressionJSON, answer); err != nil {
		logger.Errorf("[AnalysisRetry] Persist failed for %s: %v", pending.RecordingID, err)
		return
	}

	logger.Infof("[AnalysisRetry] Recovered %s after %d retries", pending.RecordingID, pending.RetryCount+1)
	s.notifications.SendAnalysisResult(&AnalysisResult{
		RecordingID: pending.RecordingID,
		Transcript:  pending.Transcript,
		AnalysisResult: &AnalysisPayload{
			Segments:    json.RawMessage(pending.SegmentJSON),
			Expressions: json.RawMessage(pending.ExpressionJSON),
		},
		ModelAnswer: answer.ModelAnswer,
	})
}

// recordFailure either schedules the next retry with doubled backoff or, once
// retries are exhausted, marks the attempt FAILED and drops the payload.
func (s *AnalysisRetryService) recordFailure(ref *AttemptRef, pending *models.PendingAnalysis, genErr error) {
	pending.RetryCount++
	if pending.RetryCount < maxRetryCount {
		pending.LastError = genErr.Error()
		pending.NextRetryAt = time.Now().Add(retryBaseDelay << pending.RetryCount)
		if err := s.db.Save(pending).Error; err != nil {
			logger.Errorf("[AnalysisRetry] Failed to reschedule %s: %v", pending.RecordingID, err)
		}
		return
	}

	logger.Errorf("[AnalysisRetry] Giving up on %s after %d retries: %v",
		pending.RecordingID, pending.RetryCount, genErr)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := NewAttemptService(tx).UpdateStatus(ref, models.AttemptFailed); err != nil {
			return err
		}
		return tx.Delete(pending).Error
	})
	if err != nil {
		logger.Errorf("[AnalysisRetry] Failed to mark %s FAILED: %v", pending.RecordingID, err)
		return
	}
	LogError("AnalysisRetry", "GenerationExhausted", "Model answer generation failed permanently: "+pending.RecordingID, map[string]interface{}{
		"recording_id": pending.RecordingID,
		"retries":      pending.RetryCount,
		"last_error":   genErr.Error(),
	})
}
