package models

import (
	"time"

	"gorm.io/gorm"
)

// Prompt template kinds: one per attempt variant.
const (
	PromptKindQuestion     = "question"
	PromptKindPresentation = "presentation"
)

// PromptTemplate represents a reusable model-answer prompt (stored in database)
type PromptTemplate struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Description string         `gorm:"size:500" json:"description"`
	Kind        string         `gorm:"size:20;index;default:question" json:"kind"` // question, presentation
	Content     string         `gorm:"type:text;not null" json:"content"`
	Variables   string         `gorm:"size:500" json:"variables"` // JSON array: ["question", "transcript"]
	IsDefault   bool           `gorm:"default:false" json:"is_default"`
	IsSystem    bool           `gorm:"default:false" json:"is_system"` // System prompts cannot be deleted
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (PromptTemplate) TableName() string { return "prompt_templates" }
