package services

import (
	"fmt"
	"testing"

	"github.com/seojun-park/mockterview/backend/internal/identity"
	"github.com/seojun-park/mockterview/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens a per-test in-memory database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.InterviewSet{},
		&models.Document{},
		&models.Interview{},
		&models.Question{},
		&models.PTInterview{},
		&models.AnswerAttempt{},
		&models.PTAnswerAttempt{},
		&models.Feedback{},
		&models.FeedbackSource{},
		&models.PendingAnalysis{},
		&models.SystemLog{},
		&models.LLMConfig{},
		&models.PromptTemplate{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// mustParse decodes a wire recording id or fails the test.
func mustParse(t *testing.T, recordingID string) identity.AttemptIdentity {
	t.Helper()
	id, err := identity.ParseRecordingID(recordingID)
	if err != nil {
		t.Fatalf("parse recording id %q: %v", recordingID, err)
	}
	return id
}

// testFixture is one user with an interview, a standard question and a
// presentation round.
type testFixture struct {
	user      models.User
	interview models.Interview
	question  models.Question
	pt        models.PTInterview
}

func seedInterview(t *testing.T, db *gorm.DB) *testFixture {
	t.Helper()

	f := &testFixture{}

	f.user = models.User{Username: "candidate", Password: "x", Nickname: "Candidate"}
	if err := db.Create(&f.user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	set := models.InterviewSet{UserID: f.user.ID, Name: "default set"}
	if err := db.Create(&set).Error; err != nil {
		t.Fatalf("seed interview set: %v", err)
	}
	doc := models.Document{InterviewSetID: set.ID, DocType: "resume", Content: "five years of backend work"}
	if err := db.Create(&doc).Error; err != nil {
		t.Fatalf("seed document: %v", err)
	}

	f.interview = models.Interview{
		UserID:         f.user.ID,
		InterviewSetID: &set.ID,
		EnterpriseName: "Acme",
		Position:       "Backend Engineer",
	}
	if err := db.Create(&f.interview).Error; err != nil {
		t.Fatalf("seed interview: %v", err)
	}

	f.question = models.Question{InterviewID: f.interview.ID, Content: "Tell me about a hard bug."}
	if err := db.Create(&f.question).Error; err != nil {
		t.Fatalf("seed question: %v", err)
	}

	f.pt = models.PTInterview{InterviewID: f.interview.ID, Title: "Scaling plan", Situation: "Traffic doubled overnight."}
	if err := db.Create(&f.pt).Error; err != nil {
		t.Fatalf("seed pt interview: %v", err)
	}

	return f
}
