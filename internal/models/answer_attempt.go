package models

import (
	"time"
)

// AttemptStatus is the lifecycle state of a recorded answer attempt.
type AttemptStatus string

const (
	AttemptPending    AttemptStatus = "PENDING"
	AttemptProcessing AttemptStatus = "PROCESSING"
	AttemptCompleted  AttemptStatus = "COMPLETED"
	AttemptFailed     AttemptStatus = "FAILED"
)

// IsTerminal reports whether no further transitions are allowed.
func (s AttemptStatus) IsTerminal() bool {
	return s == AttemptCompleted || s == AttemptFailed
}

// AnswerAttempt is one recorded take of an answer to a standard question.
// Its composite key is the attempt identity: the root uuid (equal to the
// owning question's uuid) plus the 1-based attempt number.
type AnswerAttempt struct {
	AnswerAttemptUUID string        `gorm:"primaryKey;size:36" json:"answer_attempt_uuid"`
	AttemptNumber     int           `gorm:"primaryKey" json:"attempt_number"`
	QuestionUUID      string        `gorm:"index;size:36;not null" json:"question_uuid"`
	Question          *Question     `gorm:"foreignKey:QuestionUUID" json:"question,omitempty"`
	VideoPath         string        `gorm:"size:255" json:"video_path"`
	ElapsedTime       float64       `json:"elapsed_time"`
	Status            AttemptStatus `gorm:"size:20;not null;default:PENDING" json:"status"`
	Feedback          *Feedback     `gorm:"foreignKey:AnswerAttemptUUID,AttemptNumber;references:AnswerAttemptUUID,AttemptNumber;constraint:OnDelete:CASCADE" json:"feedback,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

func (AnswerAttempt) TableName() string { return "answer_attempts" }

// PTAnswerAttempt is one recorded take of a presentation round. Same shape as
// AnswerAttempt but owned by a PTInterview, with the optional whiteboard the
// candidate drew during the presentation.
type PTAnswerAttempt struct {
	PTAnswerAttemptUUID string        `gorm:"primaryKey;size:36" json:"pt_answer_attempt_uuid"`
	AttemptNumber       int           `gorm:"primaryKey" json:"attempt_number"`
	PTUUID              string        `gorm:"index;size:36;not null" json:"pt_uuid"`
	PTInterview         *PTInterview  `gorm:"foreignKey:PTUUID" json:"pt_interview,omitempty"`
	VideoPath           string        `gorm:"size:255" json:"video_path"`
	ElapsedTime         float64       `json:"elapsed_time"`
	Whiteboard          string        `gorm:"type:text" json:"whiteboard,omitempty"`
	Status              AttemptStatus `gorm:"size:20;not null;default:PENDING" json:"status"`
	Feedback            *Feedback     `gorm:"foreignKey:PTAnswerAttemptUUID,PTAttemptNumber;references:PTAnswerAttemptUUID,AttemptNumber;constraint:OnDelete:CASCADE" json:"feedback,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

func (PTAnswerAttempt) TableName() string { return "pt_answer_attempts" }
