package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hibiken/asynq"

	"github.com/AbhishekDash-2020331001/Quizzy/models"
)

func TestNewIngestPDFTask(t *testing.T) {
	payload := IngestPDFPayload{
		SourceURL: "https://files.example.com/doc.pdf",
		UploadID:  42,
		PDFName:   "doc.pdf",
		PDFID:     "pdf-123",
	}

	task, err := NewIngestPDFTask(payload, 30*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Type() != TaskIngestPDF {
		t.Errorf("task type = %q, want %q", task.Type(), TaskIngestPDF)
	}

	var decoded IngestPDFPayload
	if err := json.Unmarshal(task.Payload(), &decoded); err != nil {
		t.Fatalf("payload does not round-trip: %v", err)
	}
	if decoded != payload {
		t.Errorf("decoded payload = %+v, want %+v", decoded, payload)
	}
}

func TestNewGenerateQuizTask(t *testing.T) {
	payload := GenerateQuizPayload{
		QuizType:     models.QuizTypeTopic,
		PDFIDs:       []string{"pdf-1", "pdf-2"},
		Topic:        "thermodynamics",
		NumQuestions: 10,
		Difficulty:   "hard",
		ExamID:       7,
		QuizID:       "quiz-1",
	}

	task, err := NewGenerateQuizTask(payload, 30*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Type() != TaskGenerateQuiz {
		t.Errorf("task type = %q, want %q", task.Type(), TaskGenerateQuiz)
	}

	var decoded GenerateQuizPayload
	if err := json.Unmarshal(task.Payload(), &decoded); err != nil {
		t.Fatalf("payload does not round-trip: %v", err)
	}
	if decoded.Topic != payload.Topic || decoded.ExamID != payload.ExamID || len(decoded.PDFIDs) != 2 {
		t.Errorf("decoded payload = %+v, want %+v", decoded, payload)
	}
}

func TestIngestPayloadWireNames(t *testing.T) {
	data, err := json.Marshal(IngestPDFPayload{SourceURL: "u", UploadID: 1, PDFName: "n", PDFID: "p"})
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]any
	json.Unmarshal(data, &raw)
	for _, key := range []string{"uploadthing_url", "upload_id", "pdf_name", "pdf_id"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("wire payload missing %q: %s", key, data)
		}
	}
}

func TestMapTaskState(t *testing.T) {
	tests := []struct {
		state asynq.TaskState
		want  string
	}{
		{asynq.TaskStatePending, "queued"},
		{asynq.TaskStateScheduled, "queued"},
		{asynq.TaskStateActive, "started"},
		{asynq.TaskStateCompleted, "finished"},
		{asynq.TaskStateRetry, "failed"},
		{asynq.TaskStateArchived, "failed"},
	}

	for _, tt := range tests {
		if got := mapTaskState(tt.state); got != tt.want {
			t.Errorf("mapTaskState(%v) = %q, want %q", tt.state, got, tt.want)
		}
	}
}
