package models

import "time"

// PendingAnalysis is a received analysis result whose model-answer generation
// failed. The payload is kept so the retry sweeper can re-run generation with
// backoff instead of losing the result; the row is deleted once feedback is
// durably written or the attempt is marked FAILED.
type PendingAnalysis struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RecordingID    string    `gorm:"uniqueIndex;size:100;not null" json:"recording_id"`
	Transcript     string    `gorm:"type:text" json:"transcript"`
	SegmentJSON    string    `gorm:"type:text" json:"segment_json"`
	ExpressionJSON string    `gorm:"type:text" json:"expression_json"`
	RetryCount     int       `gorm:"default:0" json:"retry_count"`
	LastError      string    `gorm:"type:text" json:"last_error"`
	NextRetryAt    time.Time `gorm:"index" json:"next_retry_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (PendingAnalysis) TableName() string { return "pending_analyses" }
