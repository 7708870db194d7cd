package services

import (
	"encoding/json"
	"testing"
)

// The analysis worker is a separate codebase; these names are the shared wire
// contract and must not drift.
func TestAnalysisRequest_WireFieldNames(t *testing.T) {
	data, err := json.Marshal(&AnalysisRequest{
		RecordingID:   "root~0",
		VideoFilePath: "/data/root~0/root~0.mp4",
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"recordingId", "videoFilePath"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("wire field %q missing in %s", key, data)
		}
	}
}

func TestAnalysisResult_DecodesWorkerMessage(t *testing.T) {
	payload := `{
		"recordingId": "root~2",
		"transcript": "hello",
		"analysisResult": {
			"segments": [{"start": 0}],
			"expressions": [{"label": "smile"}]
		}
	}`

	var result AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if result.RecordingID != "root~2" {
		t.Errorf("RecordingID = %q, expected root~2", result.RecordingID)
	}
	if result.AnalysisResult == nil {
		t.Fatal("AnalysisResult should be decoded")
	}
	// Segments and expressions pass through without interpretation.
	if string(result.AnalysisResult.Segments) != `[{"start": 0}]` {
		t.Errorf("Segments = %s", result.AnalysisResult.Segments)
	}
	if result.ModelAnswer != "" {
		t.Errorf("ModelAnswer = %q, expected empty on the wire", result.ModelAnswer)
	}
}

func TestTranscriptMessage_DecodesWorkerMessage(t *testing.T) {
	payload := `{"answerAttemptUuid": "root~0", "transcript": "partial"}`

	var msg TranscriptMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.AnswerAttemptUUID != "root~0" {
		t.Errorf("AnswerAttemptUUID = %q, expected root~0", msg.AnswerAttemptUUID)
	}
	if msg.Transcript != "partial" {
		t.Errorf("Transcript = %q, expected partial", msg.Transcript)
	}
}
