package models

import (
	"fmt"

	"github.com/seojun-park/mockterview/backend/internal/config"
	"github.com/seojun-park/mockterview/backend/internal/utils"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

func AutoMigrate() error {
	return DB.AutoMigrate(
		&User{},
		&InterviewSet{},
		&Document{},
		&Interview{},
		&Question{},
		&PTInterview{},
		&AnswerAttempt{},
		&PTAnswerAttempt{},
		&Feedback{},
		&FeedbackSource{},
		&PendingAnalysis{},
		&LLMConfig{},
		&PromptTemplate{},
		&SystemLog{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

// SeedDefaultData creates a demo user and the default model-answer prompt
// templates if none exist yet. Both templates instruct the model to answer as
// the candidate should have, and to cite the documents it drew from.
func SeedDefaultData() error {
	var userCount int64
	DB.Model(&User{}).Count(&userCount)
	if userCount == 0 {
		hashed, err := utils.HashPassword("demo1234")
		if err != nil {
			return err
		}
		demo := User{
			Username: "demo",
			Password: hashed,
			Nickname: "Demo Candidate",
		}
		if err := DB.Create(&demo).Error; err != nil {
			return err
		}
	}

	var promptCount int64
	DB.Model(&PromptTemplate{}).Where("is_system = ?", true).Count(&promptCount)
	if promptCount > 0 {
		return nil
	}

	questionPrompt := PromptTemplate{
		Name:        "Model Answer (Question)",
		Description: "Generates a model answer for a standard interview question",
		Kind:        PromptKindQuestion,
		Content: `You are an experienced interview coach. The candidate interviewed at
{{enterprise}} for the {{position}} position and was asked:

{{question}}

The candidate answered (transcribed):

{{transcript}}

Candidate documents (resume, portfolio, job posting excerpts):

{{documents}}

Write the strongest answer this candidate could realistically have given,
grounded in their documents. Respond with JSON only, in this exact shape:

{"model_answer": "...", "sources": [{"source_type": "resume|portfolio|transcript", "cited_content": "exact quoted text"}]}`,
		Variables: `["enterprise", "position", "question", "transcript", "documents"]`,
		IsDefault: true,
		IsSystem:  true,
	}
	if err := DB.Create(&questionPrompt).Error; err != nil {
		return err
	}

	ptPrompt := PromptTemplate{
		Name:        "Model Answer (Presentation)",
		Description: "Generates a model presentation for a PT interview round",
		Kind:        PromptKindPresentation,
		Content: `You are an experienced interview coach. The candidate gave a presentation
at {{enterprise}} for the {{position}} position.

Topic: {{title}}
Situation: {{situation}}

The candidate's presentation (transcribed):

{{transcript}}

Candidate documents (resume, portfolio, job posting excerpts):

{{documents}}

Write the strongest presentation this candidate could realistically have
delivered, grounded in their documents. Respond with JSON only, in this
exact shape:

{"model_answer": "...", "sources": [{"source_type": "resume|portfolio|transcript", "cited_content": "exact quoted text"}]}`,
		Variables: `["enterprise", "position", "title", "situation", "transcript", "documents"]`,
		IsDefault: true,
		IsSystem:  true,
	}
	return DB.Create(&ptPrompt).Error
}
