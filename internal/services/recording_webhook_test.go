package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/seojun-park/mockterview/backend/internal/config"
	"github.com/seojun-park/mockterview/backend/internal/identity"
	"github.com/seojun-park/mockterview/backend/internal/models"
	"gorm.io/gorm"
)

var errTestPublish = errors.New("broker unavailable")

// fakeQueue records published analysis requests.
type fakeQueue struct {
	published []*AnalysisRequest
	failWith  error
}

func (q *fakeQueue) PublishAnalysisRequest(req *AnalysisRequest) error {
	if q.failWith != nil {
		return q.failWith
	}
	q.published = append(q.published, req)
	return nil
}

func (q *fakeQueue) IsAsync() bool { return true }
func (q *fakeQueue) Close() error  { return nil }

func webhookSetup(t *testing.T) (*gorm.DB, *testFixture, *fakeQueue, *RecordingWebhookService) {
	t.Helper()
	db := setupTestDB(t)
	f := seedInterview(t, db)
	queue := &fakeQueue{}
	svc := NewRecordingWebhookService(db, queue, &config.RecordingConfig{
		BaseURL:  "https://media.example.com/recordings",
		FilePath: "/data/recordings",
	})
	return db, f, queue, svc
}

func TestProcessRecordingEvent_Ready(t *testing.T) {
	db, f, queue, svc := webhookSetup(t)

	attempts := NewAttemptService(db)
	if _, err := attempts.CreateAttempt(f.question.QuestionUUID); err != nil {
		t.Fatalf("CreateAttempt() error = %v", err)
	}

	recordingID := f.question.QuestionUUID + "~0"
	err := svc.ProcessRecordingEvent(&RecordingEvent{
		Event:  "recordingStatusChanged",
		Status: "ready",
		ID:     recordingID,
	})
	if err != nil {
		t.Fatalf("ProcessRecordingEvent() error = %v", err)
	}

	ref, err := attempts.Resolve(identity.AttemptIdentity{RootUUID: f.question.QuestionUUID, AttemptNumber: 1})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if ref.Status() != models.AttemptProcessing {
		t.Errorf("Status = %q, expected PROCESSING", ref.Status())
	}
	wantURL := "https://media.example.com/recordings/" + recordingID + "/" + recordingID + ".mp4"
	if ref.Standard.VideoPath != wantURL {
		t.Errorf("VideoPath = %q, expected %q", ref.Standard.VideoPath, wantURL)
	}

	var interview models.Interview
	if err := db.First(&interview, f.interview.ID).Error; err != nil {
		t.Fatalf("load interview: %v", err)
	}
	if interview.FinishedAt == nil {
		t.Error("interview FinishedAt should be stamped")
	}

	if len(queue.published) != 1 {
		t.Fatalf("published = %d requests, expected 1", len(queue.published))
	}
	req := queue.published[0]
	if req.RecordingID != recordingID {
		t.Errorf("RecordingID = %q, expected %q", req.RecordingID, recordingID)
	}
	if !strings.HasPrefix(req.VideoFilePath, "/data/recordings/") || !strings.HasSuffix(req.VideoFilePath, ".mp4") {
		t.Errorf("unexpected VideoFilePath %q", req.VideoFilePath)
	}
}

func TestProcessRecordingEvent_IgnoresOtherEvents(t *testing.T) {
	_, f, queue, svc := webhookSetup(t)

	events := []RecordingEvent{
		{Event: "recordingStatusChanged", Status: "started", ID: f.question.QuestionUUID + "~0"},
		{Event: "participantJoined", Status: "ready", ID: f.question.QuestionUUID + "~0"},
		{Event: "sessionDestroyed", Status: "", ID: ""},
	}
	for _, event := range events {
		if err := svc.ProcessRecordingEvent(&event); err != nil {
			t.Errorf("ProcessRecordingEvent(%s/%s) error = %v", event.Event, event.Status, err)
		}
	}

	if len(queue.published) != 0 {
		t.Errorf("published = %d requests, expected 0", len(queue.published))
	}
}

func TestProcessRecordingEvent_BadRecordingID(t *testing.T) {
	_, _, queue, svc := webhookSetup(t)

	err := svc.ProcessRecordingEvent(&RecordingEvent{
		Event:  "recordingStatusChanged",
		Status: "ready",
		ID:     "",
	})
	if err == nil {
		t.Error("ProcessRecordingEvent() should fail on empty recording id")
	}
	if len(queue.published) != 0 {
		t.Errorf("published = %d requests, expected 0", len(queue.published))
	}
}

func TestProcessRecordingEvent_UnknownAttempt(t *testing.T) {
	db, f, queue, svc := webhookSetup(t)

	// No attempt created: the recording references attempt 1 that does not exist.
	err := svc.ProcessRecordingEvent(&RecordingEvent{
		Event:  "recordingStatusChanged",
		Status: "ready",
		ID:     f.question.QuestionUUID + "~0",
	})
	if err == nil {
		t.Error("ProcessRecordingEvent() should fail when no attempt matches")
	}
	if len(queue.published) != 0 {
		t.Errorf("published = %d requests, expected 0", len(queue.published))
	}

	// The failed transaction must leave no partial state behind.
	var interview models.Interview
	if err := db.First(&interview, f.interview.ID).Error; err != nil {
		t.Fatalf("load interview: %v", err)
	}
	if interview.FinishedAt != nil {
		t.Error("interview FinishedAt should not be stamped")
	}
}

func TestProcessRecordingEvent_SystemLogActions(t *testing.T) {
	db, f, _, svc := webhookSetup(t)
	InitSystemLogger(db)
	defer InitSystemLogger(nil)

	// A recording nobody attempted gets the dedicated action label.
	event := &RecordingEvent{
		Event:  "recordingStatusChanged",
		Status: "ready",
		ID:     f.question.QuestionUUID + "~0",
	}
	if err := svc.ProcessRecordingEvent(event); err == nil {
		t.Fatal("ProcessRecordingEvent() should fail when no attempt matches")
	}
	var entry models.SystemLog
	if err := db.Last(&entry).Error; err != nil {
		t.Fatalf("load system log: %v", err)
	}
	if entry.Action != "AttemptNotFound" {
		t.Errorf("Action = %q, expected AttemptNotFound", entry.Action)
	}

	// A database failure mid-transaction is not an unknown attempt.
	attempts := NewAttemptService(db)
	if _, err := attempts.CreateAttempt(f.question.QuestionUUID); err != nil {
		t.Fatalf("CreateAttempt() error = %v", err)
	}
	if err := db.Migrator().DropTable(&models.Interview{}); err != nil {
		t.Fatalf("drop interviews table: %v", err)
	}
	if err := svc.ProcessRecordingEvent(event); err == nil {
		t.Fatal("ProcessRecordingEvent() should fail when the interview cannot be loaded")
	}
	// Reset the destination so the previous row's primary key is not reused
	// as a query condition.
	entry = models.SystemLog{}
	if err := db.Last(&entry).Error; err != nil {
		t.Fatalf("load system log: %v", err)
	}
	if entry.Action != "ProcessingFailed" {
		t.Errorf("Action = %q, expected ProcessingFailed", entry.Action)
	}
}

func TestProcessRecordingEvent_PublishFailureKeepsState(t *testing.T) {
	db, f, queue, svc := webhookSetup(t)
	queue.failWith = errTestPublish

	attempts := NewAttemptService(db)
	if _, err := attempts.CreateAttempt(f.question.QuestionUUID); err != nil {
		t.Fatalf("CreateAttempt() error = %v", err)
	}

	err := svc.ProcessRecordingEvent(&RecordingEvent{
		Event:  "recordingStatusChanged",
		Status: "ready",
		ID:     f.question.QuestionUUID + "~0",
	})
	if err != nil {
		t.Fatalf("ProcessRecordingEvent() error = %v", err)
	}

	// The durable transition survives a lost publish.
	ref, err := attempts.Resolve(identity.AttemptIdentity{RootUUID: f.question.QuestionUUID, AttemptNumber: 1})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if ref.Status() != models.AttemptProcessing {
		t.Errorf("Status = %q, expected PROCESSING", ref.Status())
	}
}
