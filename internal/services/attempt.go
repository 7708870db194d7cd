package services

import (
	"errors"

	"github.com/seojun-park/mockterview/backend/internal/identity"
	"github.com/seojun-park/mockterview/backend/internal/models"
	"gorm.io/gorm"
)

// Attempt variant kinds.
const (
	KindStandard     = "standard"
	KindPresentation = "presentation"
)

var (
	// ErrRootNotFound means the root uuid matches neither a question nor a
	// presentation round.
	ErrRootNotFound = errors.New("attempt root not found")
	// ErrAttemptNotFound means no attempt exists for a decoded identity.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrInvalidReference means a received recording id references an attempt
	// that does not exist; feedback must never be created for it.
	ErrInvalidReference = errors.New("invalid recording reference")
)

// AttemptRef is the tagged result of resolving an attempt identity: exactly
// one of Standard or Presentation is set. Every pipeline stage consumes this
// instead of re-running the dual standard/presentation lookup itself.
type AttemptRef struct {
	Kind         string
	Standard     *models.AnswerAttempt
	Presentation *models.PTAnswerAttempt
}

// Identity returns the (root uuid, attempt number) pair of the referenced attempt.
func (r *AttemptRef) Identity() identity.AttemptIdentity {
	if r.Kind == KindPresentation {
		return identity.AttemptIdentity{RootUUID: r.Presentation.PTAnswerAttemptUUID, AttemptNumber: r.Presentation.AttemptNumber}
	}
	return identity.AttemptIdentity{RootUUID: r.Standard.AnswerAttemptUUID, AttemptNumber: r.Standard.AttemptNumber}
}

// Status returns the current lifecycle status of the referenced attempt.
func (r *AttemptRef) Status() models.AttemptStatus {
	if r.Kind == KindPresentation {
		return r.Presentation.Status
	}
	return r.Standard.Status
}

// GenerationContext is everything the model-answer generator needs about the
// attempt: the asked question or presentation brief, the employer context and
// the candidate's uploaded documents.
type GenerationContext struct {
	Kind         string
	QuestionText string
	Title        string
	Situation    string
	Enterprise   string
	Position     string
	Documents    []models.Document
}

// AttemptService is the attempt store: creation, polymorphic resolution and
// explicit status transitions. Construct it over a transaction handle to get
// read-resolve-mutate-write atomicity for one attempt.
type AttemptService struct {
	db *gorm.DB
}

func NewAttemptService(db *gorm.DB) *AttemptService {
	return &AttemptService{db: db}
}

// CreateAttempt appends a new PENDING attempt for the given root. The attempt
// number is count(existing)+1, so numbers for one root form a dense 1..N
// sequence in creation order.
func (s *AttemptService) CreateAttempt(rootUUID string) (*AttemptRef, error) {
	var ref *AttemptRef

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var question models.Question
		if err := tx.First(&question, "question_uuid = ?", rootUUID).Error; err == nil {
			var count int64
			if err := tx.Model(&models.AnswerAttempt{}).
				Where("answer_attempt_uuid = ?", rootUUID).Count(&count).Error; err != nil {
				return err
			}
			attempt := &models.AnswerAttempt{
				AnswerAttemptUUID: rootUUID,
				AttemptNumber:     int(count) + 1,
				QuestionUUID:      question.QuestionUUID,
				Status:            models.AttemptPending,
			}
			if err := tx.Create(attempt).Error; err != nil {
				return err
			}
			ref = &AttemptRef{Kind: KindStandard, Standard: attempt}
			return nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var pt models.PTInterview
		if err := tx.First(&pt, "pt_uuid = ?", rootUUID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRootNotFound
			}
			return err
		}
		var count int64
		if err := tx.Model(&models.PTAnswerAttempt{}).
			Where("pt_answer_attempt_uuid = ?", rootUUID).Count(&count).Error; err != nil {
			return err
		}
		attempt := &models.PTAnswerAttempt{
			PTAnswerAttemptUUID: rootUUID,
			AttemptNumber:       int(count) + 1,
			PTUUID:              pt.PTUUID,
			Status:              models.AttemptPending,
		}
		if err := tx.Create(attempt).Error; err != nil {
			return err
		}
		ref = &AttemptRef{Kind: KindPresentation, Presentation: attempt}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ref, nil
}

// Resolve looks up the attempt for a decoded identity, trying the standard
// variant first and the presentation variant second.
func (s *AttemptService) Resolve(id identity.AttemptIdentity) (*AttemptRef, error) {
	var attempt models.AnswerAttempt
	err := s.db.First(&attempt, "answer_attempt_uuid = ? AND attempt_number = ?",
		id.RootUUID, id.AttemptNumber).Error
	if err == nil {
		return &AttemptRef{Kind: KindStandard, Standard: &attempt}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var ptAttempt models.PTAnswerAttempt
	err = s.db.First(&ptAttempt, "pt_answer_attempt_uuid = ? AND attempt_number = ?",
		id.RootUUID, id.AttemptNumber).Error
	if err == nil {
		return &AttemptRef{Kind: KindPresentation, Presentation: &ptAttempt}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return nil, ErrAttemptNotFound
}

// UpdateStatus is the single mutation point for the attempt state machine.
// Only pipeline stages call it; read paths never flip status.
func (s *AttemptService) UpdateStatus(ref *AttemptRef, status models.AttemptStatus) error {
	switch ref.Kind {
	case KindPresentation:
		ref.Presentation.Status = status
		return s.db.Model(ref.Presentation).Update("status", status).Error
	default:
		ref.Standard.Status = status
		return s.db.Model(ref.Standard).Update("status", status).Error
	}
}

// SetVideoPath attaches the recording URL once the recording is ready.
func (s *AttemptService) SetVideoPath(ref *AttemptRef, videoURL string) error {
	switch ref.Kind {
	case KindPresentation:
		ref.Presentation.VideoPath = videoURL
		return s.db.Model(ref.Presentation).Update("video_path", videoURL).Error
	default:
		ref.Standard.VideoPath = videoURL
		return s.db.Model(ref.Standard).Update("video_path", videoURL).Error
	}
}

// Feedback loads the feedback for the referenced attempt with its citation
// sources, or gorm.ErrRecordNotFound while analysis is still in flight.
func (s *AttemptService) Feedback(ref *AttemptRef) (*models.Feedback, error) {
	var feedback models.Feedback
	query := s.db.Preload("Sources")
	var err error
	switch ref.Kind {
	case KindPresentation:
		err = query.First(&feedback, "pt_answer_attempt_uuid = ? AND pt_attempt_number = ?",
			ref.Presentation.PTAnswerAttemptUUID, ref.Presentation.AttemptNumber).Error
	default:
		err = query.First(&feedback, "answer_attempt_uuid = ? AND attempt_number = ?",
			ref.Standard.AnswerAttemptUUID, ref.Standard.AttemptNumber).Error
	}
	if err != nil {
		return nil, err
	}
	return &feedback, nil
}

// Interview loads the interview that ultimately owns the attempt.
func (s *AttemptService) Interview(ref *AttemptRef) (*models.Interview, error) {
	var interviewID uint

	switch ref.Kind {
	case KindPresentation:
		var pt models.PTInterview
		if err := s.db.First(&pt, "pt_uuid = ?", ref.Presentation.PTUUID).Error; err != nil {
			return nil, err
		}
		interviewID = pt.InterviewID
	default:
		var question models.Question
		if err := s.db.First(&question, "question_uuid = ?", ref.Standard.QuestionUUID).Error; err != nil {
			return nil, err
		}
		interviewID = question.InterviewID
	}

	var interview models.Interview
	if err := s.db.First(&interview, interviewID).Error; err != nil {
		return nil, err
	}
	return &interview, nil
}

// OwnerUUID walks the ownership chain (attempt → question/presentation →
// interview → user) and returns the owning user's uuid.
func (s *AttemptService) OwnerUUID(ref *AttemptRef) (string, error) {
	interview, err := s.Interview(ref)
	if err != nil {
		return "", err
	}

	var user models.User
	if err := s.db.First(&user, interview.UserID).Error; err != nil {
		return "", err
	}
	return user.UserUUID, nil
}

// GenerationContext gathers the prompt context for the attempt: question or
// presentation brief, employer and position, and the interview set's documents.
func (s *AttemptService) GenerationContext(ref *AttemptRef) (*GenerationContext, error) {
	gc := &GenerationContext{Kind: ref.Kind}

	switch ref.Kind {
	case KindPresentation:
		var pt models.PTInterview
		if err := s.db.First(&pt, "pt_uuid = ?", ref.Presentation.PTUUID).Error; err != nil {
			return nil, err
		}
		gc.Title = pt.Title
		gc.Situation = pt.Situation
	default:
		var question models.Question
		if err := s.db.First(&question, "question_uuid = ?", ref.Standard.QuestionUUID).Error; err != nil {
			return nil, err
		}
		gc.QuestionText = question.Content
	}

	interview, err := s.Interview(ref)
	if err != nil {
		return nil, err
	}
	gc.Enterprise = interview.EnterpriseName
	gc.Position = interview.Position

	if interview.InterviewSetID != nil {
		if err := s.db.Where("interview_set_id = ?", *interview.InterviewSetID).
			Find(&gc.Documents).Error; err != nil {
			return nil, err
		}
	}
	return gc, nil
}
