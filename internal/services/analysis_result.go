package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/seojun-park/mockterview/backend/internal/identity"
	"github.com/seojun-park/mockterview/backend/internal/models"
	"github.com/seojun-park/mockterview/backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrGenerationPending means the result was received and parked, but the model
// answer could not be generated yet; the retry sweeper owns it from here and
// the message must be acked without notifying.
var ErrGenerationPending = errors.New("model answer generation pending retry")

// retryBaseDelay is the first retry interval for a parked result; each
// subsequent retry doubles it.
const retryBaseDelay = time.Minute

// AnalysisResultService persists worker analysis results as feedback. The
// model-answer generation call runs outside the write transaction so a slow
// or failing backend never holds row locks; on generation failure the result
// is parked in pending_analyses and the attempt stays PROCESSING.
type AnalysisResultService struct {
	db        *gorm.DB
	generator ModelAnswerGenerator
}

func NewAnalysisResultService(db *gorm.DB, generator ModelAnswerGenerator) *AnalysisResultService {
	return &AnalysisResultService{db: db, generator: generator}
}

// SaveAnalysisResult processes one result message and returns the model answer
// to fan out. Processing is idempotent on recording id: a result for an
// attempt that already has feedback returns the stored answer unchanged.
func (s *AnalysisResultService) SaveAnalysisResult(ctx context.Context, result *AnalysisResult) (string, error) {
	id, err := identity.ParseRecordingID(result.RecordingID)
	if err != nil {
		LogError("AnalysisResult", "BadRecordingID", "Unparsable recording id: "+result.RecordingID, map[string]interface{}{
			"recording_id": result.RecordingID,
		})
		return "", fmt.Errorf("parse recording id %q: %w", result.RecordingID, ErrInvalidReference)
	}

	attempts := NewAttemptService(s.db)
	ref, err := attempts.Resolve(id)
	if err != nil {
		if errors.Is(err, ErrAttemptNotFound) {
			LogError("AnalysisResult", "UnknownAttempt", "Result references no attempt: "+result.RecordingID, map[string]interface{}{
				"recording_id": result.RecordingID,
			})
			return "", fmt.Errorf("resolve %s: %w", result.RecordingID, ErrInvalidReference)
		}
		return "", err
	}

	if existing, err := attempts.Feedback(ref); err == nil {
		logger.Infof("[AnalysisResult] Duplicate result for %s, feedback already exists", result.RecordingID)
		return existing.ModelAnswer, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var segmentJSON, expressionJSON string
	if result.AnalysisResult != nil {
		segmentJSON = string(result.AnalysisResult.Segments)
		expressionJSON = string(result.AnalysisResult.Expressions)
	}

	gc, err := attempts.GenerationContext(ref)
	if err != nil {
		return "", err
	}

	answer, genErr := s.generator.Generate(ctx, gc, result.Transcript)
	if genErr != nil {
		logger.Warnf("[AnalysisResult] Generation failed for %s, parking for retry: %v", result.RecordingID, genErr)
		if parkErr := s.park(result.RecordingID, result.Transcript, segmentJSON, expressionJSON, genErr); parkErr != nil {
			return "", parkErr
		}
		return "", ErrGenerationPending
	}

	if err := s.persist(ref, result.RecordingID, result.Transcript, segmentJSON, expressionJSON, answer); err != nil {
		return "", err
	}

	logger.Infof("[AnalysisResult] Feedback saved for %s (%s attempt %d)",
		result.RecordingID, ref.Kind, ref.Identity().AttemptNumber)
	return answer.ModelAnswer, nil
}

// persist writes the COMPLETED transition, the feedback row with its citation
// sources, and clears any parked copy, all in one transaction.
func (s *AnalysisResultService) persist(ref *AttemptRef, recordingID, transcript, segmentJSON, expressionJSON string, answer *ModelAnswerResult) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		attempts := NewAttemptService(tx)
		if err := attempts.UpdateStatus(ref, models.AttemptCompleted); err != nil {
			return err
		}

		feedback := &models.Feedback{
			Transcript:  transcript,
			Segment:     segmentJSON,
			Expression:  expressionJSON,
			ModelAnswer: answer.ModelAnswer,
		}
		switch ref.Kind {
		case KindPresentation:
			feedback.PTAnswerAttemptUUID = &ref.Presentation.PTAnswerAttemptUUID
			feedback.PTAttemptNumber = &ref.Presentation.AttemptNumber
		default:
			feedback.AnswerAttemptUUID = &ref.Standard.AnswerAttemptUUID
			feedback.AttemptNumber = &ref.Standard.AttemptNumber
		}
		for _, src := range answer.Sources {
			feedback.Sources = append(feedback.Sources, models.FeedbackSource{
				SourceType:   src.SourceType,
				CitedContent: src.CitedContent,
			})
		}
		if err := tx.Create(feedback).Error; err != nil {
			return err
		}

		return tx.Where("recording_id = ?", recordingID).Delete(&models.PendingAnalysis{}).Error
	})
}

// park stores the result payload for the retry sweeper. Upsert on recording
// id: a redelivered message refreshes the row instead of duplicating it.
func (s *AnalysisResultService) park(recordingID, transcript, segmentJSON, expressionJSON string, genErr error) error {
	pending := &models.PendingAnalysis{
		RecordingID:    recordingID,
		Transcript:     transcript,
		SegmentJSON:    segmentJSON,
		ExpressionJSON: expressionJSON,
		LastError:      genErr.Error(),
		NextRetryAt:    time.Now().Add(retryBaseDelay),
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "recording_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_error", "updated_at"}),
	}).Create(pending).Error
}
