package services

import "encoding/json"

// Task types double as the fixed channel names of the analysis pipeline.
const (
	TaskTypeAnalysisRequest = "analysis:request"
	TaskTypeAnalysisResult  = "analysis:result"
	TaskTypeTranscript      = "analysis:transcript"
)

// AnalysisRequest asks the external analysis worker to process one recording.
// Field names are the wire contract shared with the worker.
type AnalysisRequest struct {
	RecordingID   string `json:"recordingId"`
	VideoFilePath string `json:"videoFilePath"`
}

// AnalysisPayload carries the worker's structured analysis. Segments and
// expressions are passed through verbatim; this service stores them, it does
// not interpret them.
type AnalysisPayload struct {
	Segments    json.RawMessage `json:"segments"`
	Expressions json.RawMessage `json:"expressions"`
}

// AnalysisResult is the worker's full result for one recording. ModelAnswer
// is empty on the wire and filled in before the result is fanned out to the
// owning user.
type AnalysisResult struct {
	RecordingID    string           `json:"recordingId"`
	Transcript     string           `json:"transcript"`
	AnalysisResult *AnalysisPayload `json:"analysisResult"`
	ModelAnswer    string           `json:"modelAnswer,omitempty"`
}

// TranscriptMessage is the low-latency partial result: the transcript alone,
// forwarded straight to notification without persistence.
type TranscriptMessage struct {
	AnswerAttemptUUID string `json:"answerAttemptUuid"`
	Transcript        string `json:"transcript"`
}
