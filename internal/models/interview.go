package models

import (
	"time"

	"gorm.io/gorm"
)

// InterviewSet groups the uploaded documents (resume, portfolio, job posting)
// a candidate prepared for a position. Document contents feed the model-answer
// generation prompt as citation context.
type InterviewSet struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"index;not null" json:"user_id"`
	Name      string         `gorm:"size:200" json:"name"`
	Documents []Document     `gorm:"foreignKey:InterviewSetID" json:"documents,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (InterviewSet) TableName() string { return "interview_sets" }

// Document is the extracted text of one uploaded file. Upload and OCR are
// handled by the files service; only the text lands here.
type Document struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	InterviewSetID uint      `gorm:"index;not null" json:"interview_set_id"`
	DocType        string    `gorm:"size:50" json:"doc_type"` // resume, portfolio, posting
	Content        string    `gorm:"type:text" json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Document) TableName() string { return "documents" }

// Interview is one mock interview session owned by a user. Questions and
// presentation rounds hang off it; FinishedAt is stamped when the first
// recording of the session becomes ready.
type Interview struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         uint           `gorm:"index;not null" json:"user_id"`
	User           *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	InterviewSetID *uint          `json:"interview_set_id"`
	InterviewSet   *InterviewSet  `gorm:"foreignKey:InterviewSetID" json:"interview_set,omitempty"`
	EnterpriseName string         `gorm:"size:200" json:"enterprise_name"`
	Position       string         `gorm:"size:200" json:"position"`
	FinishedAt     *time.Time     `json:"finished_at"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Interview) TableName() string { return "interviews" }
