package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Question is a standard interview question. Its uuid doubles as the root of
// the attempt identity: recordings for this question carry the question uuid
// in their recording id.
type Question struct {
	QuestionUUID string          `gorm:"primaryKey;size:36" json:"question_uuid"`
	InterviewID  uint            `gorm:"index;not null" json:"interview_id"`
	Interview    *Interview      `gorm:"foreignKey:InterviewID" json:"interview,omitempty"`
	Content      string          `gorm:"type:text;not null" json:"content"`
	Attempts     []AnswerAttempt `gorm:"foreignKey:QuestionUUID;constraint:OnDelete:CASCADE" json:"attempts,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (Question) TableName() string { return "questions" }

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.QuestionUUID == "" {
		q.QuestionUUID = uuid.New().String()
	}
	return nil
}
