package services

import (
	"errors"
	"testing"

	"github.com/seojun-park/mockterview/backend/internal/identity"
	"github.com/seojun-park/mockterview/backend/internal/models"
)

func TestCreateAttempt_DenseNumbering(t *testing.T) {
	db := setupTestDB(t)
	f := seedInterview(t, db)
	svc := NewAttemptService(db)

	for want := 1; want <= 3; want++ {
		ref, err := svc.CreateAttempt(f.question.QuestionUUID)
		if err != nil {
			t.Fatalf("CreateAttempt() error = %v", err)
		}
		if ref.Kind != KindStandard {
			t.Errorf("Kind = %q, expected %q", ref.Kind, KindStandard)
		}
		if got := ref.Identity().AttemptNumber; got != want {
			t.Errorf("AttemptNumber = %d, expected %d", got, want)
		}
		if ref.Status() != models.AttemptPending {
			t.Errorf("Status = %q, expected PENDING", ref.Status())
		}
	}
}

func TestCreateAttempt_PresentationRound(t *testing.T) {
	db := setupTestDB(t)
	f := seedInterview(t, db)
	svc := NewAttemptService(db)

	ref, err := svc.CreateAttempt(f.pt.PTUUID)
	if err != nil {
		t.Fatalf("CreateAttempt() error = %v", err)
	}
	if ref.Kind != KindPresentation {
		t.Errorf("Kind = %q, expected %q", ref.Kind, KindPresentation)
	}
	if ref.Identity().AttemptNumber != 1 {
		t.Errorf("AttemptNumber = %d, expected 1", ref.Identity().AttemptNumber)
	}
}

func TestCreateAttempt_UnknownRoot(t *testing.T) {
	db := setupTestDB(t)
	seedInterview(t, db)
	svc := NewAttemptService(db)

	_, err := svc.CreateAttempt("no-such-root")
	if !errors.Is(err, ErrRootNotFound) {
		t.Errorf("CreateAttempt() error = %v, expected ErrRootNotFound", err)
	}
}

func TestResolve_BothVariants(t *testing.T) {
	db := setupTestDB(t)
	f := seedInterview(t, db)
	svc := NewAttemptService(db)

	if _, err := svc.CreateAttempt(f.question.QuestionUUID); err != nil {
		t.Fatalf("CreateAttempt(question) error = %v", err)
	}
	if _, err := svc.CreateAttempt(f.pt.PTUUID); err != nil {
		t.Fatalf("CreateAttempt(pt) error = %v", err)
	}

	ref, err := svc.Resolve(identity.AttemptIdentity{RootUUID: f.question.QuestionUUID, AttemptNumber: 1})
	if err != nil {
		t.Fatalf("Resolve(question) error = %v", err)
	}
	if ref.Kind != KindStandard {
		t.Errorf("Kind = %q, expected %q", ref.Kind, KindStandard)
	}

	ref, err = svc.Resolve(identity.AttemptIdentity{RootUUID: f.pt.PTUUID, AttemptNumber: 1})
	if err != nil {
		t.Fatalf("Resolve(pt) error = %v", err)
	}
	if ref.Kind != KindPresentation {
		t.Errorf("Kind = %q, expected %q", ref.Kind, KindPresentation)
	}
}

func TestResolve_NotFound(t *testing.T) {
	db := setupTestDB(t)
	f := seedInterview(t, db)
	svc := NewAttemptService(db)

	if _, err := svc.CreateAttempt(f.question.QuestionUUID); err != nil {
		t.Fatalf("CreateAttempt() error = %v", err)
	}

	_, err := svc.Resolve(identity.AttemptIdentity{RootUUID: f.question.QuestionUUID, AttemptNumber: 2})
	if !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("Resolve() error = %v, expected ErrAttemptNotFound", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	f := seedInterview(t, db)
	svc := NewAttemptService(db)

	ref, err := svc.CreateAttempt(f.question.QuestionUUID)
	if err != nil {
		t.Fatalf("CreateAttempt() error = %v", err)
	}

	if err := svc.UpdateStatus(ref, models.AttemptProcessing); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	loaded, err := svc.Resolve(ref.Identity())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if loaded.Status() != models.AttemptProcessing {
		t.Errorf("Status = %q, expected PROCESSING", loaded.Status())
	}
}

func TestOwnerUUID(t *testing.T) {
	db := setupTestDB(t)
	f := seedInterview(t, db)
	svc := NewAttemptService(db)

	ref, err := svc.CreateAttempt(f.pt.PTUUID)
	if err != nil {
		t.Fatalf("CreateAttempt() error = %v", err)
	}

	owner, err := svc.OwnerUUID(ref)
	if err != nil {
		t.Fatalf("OwnerUUID() error = %v", err)
	}
	if owner != f.user.UserUUID {
		t.Errorf("OwnerUUID = %q, expected %q", owner, f.user.UserUUID)
	}
}

func TestGenerationContext(t *testing.T) {
	db := setupTestDB(t)
	f := seedInterview(t, db)
	svc := NewAttemptService(db)

	ref, err := svc.CreateAttempt(f.question.QuestionUUID)
	if err != nil {
		t.Fatalf("CreateAttempt() error = %v", err)
	}

	gc, err := svc.GenerationContext(ref)
	if err != nil {
		t.Fatalf("GenerationContext() error = %v", err)
	}
	if gc.QuestionText != f.question.Content {
		t.Errorf("QuestionText = %q, expected %q", gc.QuestionText, f.question.Content)
	}
	if gc.Enterprise != "Acme" {
		t.Errorf("Enterprise = %q, expected Acme", gc.Enterprise)
	}
	if len(gc.Documents) != 1 {
		t.Fatalf("len(Documents) = %d, expected 1", len(gc.Documents))
	}
	if gc.Documents[0].DocType != "resume" {
		t.Errorf("DocType = %q, expected resume", gc.Documents[0].DocType)
	}
}

func TestGenerationContext_Presentation(t *testing.T) {
	db := setupTestDB(t)
	f := seedInterview(t, db)
	svc := NewAttemptService(db)

	ref, err := svc.CreateAttempt(f.pt.PTUUID)
	if err != nil {
		t.Fatalf("CreateAttempt() error = %v", err)
	}

	gc, err := svc.GenerationContext(ref)
	if err != nil {
		t.Fatalf("GenerationContext() error = %v", err)
	}
	if gc.Title != f.pt.Title {
		t.Errorf("Title = %q, expected %q", gc.Title, f.pt.Title)
	}
	if gc.Situation != f.pt.Situation {
		t.Errorf("Situation = %q, expected %q", gc.Situation, f.pt.Situation)
	}
	if gc.QuestionText != "" {
		t.Errorf("QuestionText = %q, expected empty", gc.QuestionText)
	}
}
