package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Feedback is the persisted analysis result of one attempt: the transcript,
// the serialized segment/expression analysis, the generated model answer and
// its citation sources. Exactly one of the two attempt references is set,
// enforced by a check constraint; the unique indexes keep it one-to-one.
type Feedback struct {
	FeedbackUUID string `gorm:"primaryKey;size:36" json:"feedback_uuid"`

	AnswerAttemptUUID *string `gorm:"size:36;uniqueIndex:idx_feedback_attempt;check:feedback_owner,(answer_attempt_uuid IS NOT NULL AND pt_answer_attempt_uuid IS NULL) OR (answer_attempt_uuid IS NULL AND pt_answer_attempt_uuid IS NOT NULL)" json:"answer_attempt_uuid,omitempty"`
	AttemptNumber     *int    `gorm:"uniqueIndex:idx_feedback_attempt" json:"attempt_number,omitempty"`

	PTAnswerAttemptUUID *string `gorm:"size:36;uniqueIndex:idx_feedback_pt_attempt" json:"pt_answer_attempt_uuid,omitempty"`
	PTAttemptNumber     *int    `gorm:"uniqueIndex:idx_feedback_pt_attempt" json:"pt_attempt_number,omitempty"`

	Transcript  string `gorm:"type:text" json:"transcript"`
	Segment     string `gorm:"type:text" json:"segment"`    // JSON array of analyzed segments
	Expression  string `gorm:"type:text" json:"expression"` // JSON array of expression signals
	ModelAnswer string `gorm:"type:text" json:"model_answer"`

	Sources []FeedbackSource `gorm:"foreignKey:FeedbackUUID;constraint:OnDelete:CASCADE" json:"sources,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Feedback) TableName() string { return "feedback" }

func (f *Feedback) BeforeCreate(tx *gorm.DB) error {
	if f.FeedbackUUID == "" {
		f.FeedbackUUID = uuid.New().String()
	}
	return nil
}

// FeedbackSource records one citation the model answer drew from: which kind
// of document it came from and the exact cited substring.
type FeedbackSource struct {
	FeedbackSourceUUID string    `gorm:"primaryKey;size:36" json:"feedback_source_uuid"`
	FeedbackUUID       string    `gorm:"index;size:36;not null" json:"feedback_uuid"`
	SourceType         string    `gorm:"size:50" json:"source_type"` // resume, portfolio, transcript
	CitedContent       string    `gorm:"type:text" json:"cited_content"`
	CreatedAt          time.Time `json:"created_at"`
}

func (FeedbackSource) TableName() string { return "feedback_sources" }

func (s *FeedbackSource) BeforeCreate(tx *gorm.DB) error {
	if s.FeedbackSourceUUID == "" {
		s.FeedbackSourceUUID = uuid.New().String()
	}
	return nil
}
