package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PTInterview is a presentation round within an interview: the candidate
// presents on a given topic and situation instead of answering a question.
// Its uuid is the attempt-identity root for presentation recordings.
type PTInterview struct {
	PTUUID      string            `gorm:"primaryKey;size:36" json:"pt_uuid"`
	InterviewID uint              `gorm:"index;not null" json:"interview_id"`
	Interview   *Interview        `gorm:"foreignKey:InterviewID" json:"interview,omitempty"`
	Title       string            `gorm:"size:300" json:"title"`
	Situation   string            `gorm:"type:text" json:"situation"`
	Attempts    []PTAnswerAttempt `gorm:"foreignKey:PTUUID;constraint:OnDelete:CASCADE" json:"attempts,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (PTInterview) TableName() string { return "pt_interviews" }

func (p *PTInterview) BeforeCreate(tx *gorm.DB) error {
	if p.PTUUID == "" {
		p.PTUUID = uuid.New().String()
	}
	return nil
}
