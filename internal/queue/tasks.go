package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/AbhishekDash-2020331001/Quizzy/internal/logger"
	"github.com/AbhishekDash-2020331001/Quizzy/models"
	"github.com/AbhishekDash-2020331001/Quizzy/services"
)

const (
	TaskIngestPDF    = "pdf:ingest"
	TaskGenerateQuiz = "quiz:generate"

	QueuePDFProcessing  = "pdf_processing"
	QueueQuizProcessing = "quiz_processing"
)

type IngestPDFPayload struct {
	SourceURL string `json:"uploadthing_url"`
	UploadID  int64  `json:"upload_id"`
	PDFName   string `json:"pdf_name"`
	PDFID     string `json:"pdf_id"`
}

type GenerateQuizPayload struct {
	QuizType     models.QuizType `json:"quiz_type"`
	PDFIDs       []string        `json:"pdf_ids"`
	Topic        string          `json:"topic,omitempty"`
	PageStart    int             `json:"page_start,omitempty"`
	PageEnd      int             `json:"page_end,omitempty"`
	NumQuestions int             `json:"num_questions"`
	Difficulty   string          `json:"difficulty"`
	ExamID       int64           `json:"exam_id"`
	QuizID       string          `json:"quiz_id"`
}

// Task creators. Jobs are never retried automatically: a failed pipeline
// reports through the webhook instead, and the backend decides whether to
// resubmit.

func NewIngestPDFTask(payload IngestPDFPayload, timeout, retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestPDF,
		data,
		asynq.Queue(QueuePDFProcessing),
		asynq.TaskID(uuid.NewString()),
		asynq.MaxRetry(0),
		asynq.Timeout(timeout),
		asynq.Retention(retention),
	), nil
}

func NewGenerateQuizTask(payload GenerateQuizPayload, timeout, retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskGenerateQuiz,
		data,
		asynq.Queue(QueueQuizProcessing),
		asynq.TaskID(uuid.NewString()),
		asynq.MaxRetry(0),
		asynq.Timeout(timeout),
		asynq.Retention(retention),
	), nil
}

// TaskProcessor drives the ingestion and quiz pipelines inside the worker.
type TaskProcessor struct {
	pdfService    *services.PDFService
	vectorService *services.VectorService
	ragService    *services.RAGService
	chunker       *services.Chunker
	notifier      *services.Notifier
}

func NewTaskProcessor(pdfService *services.PDFService, vectorService *services.VectorService, ragService *services.RAGService, chunker *services.Chunker, notifier *services.Notifier) *TaskProcessor {
	return &TaskProcessor{
		pdfService:    pdfService,
		vectorService: vectorService,
		ragService:    ragService,
		chunker:       chunker,
		notifier:      notifier,
	}
}

// HandleIngestPDF runs download, extraction, chunking, and vector storage
// for one upload, then notifies the backend of the outcome.
func (p *TaskProcessor) HandleIngestPDF(ctx context.Context, t *asynq.Task) error {
	var payload IngestPDFPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	logger.Info("Starting PDF ingestion", "upload_id", payload.UploadID, "pdf_id", payload.PDFID)

	result, err := p.ingest(ctx, payload)
	if err != nil {
		logger.Error("PDF ingestion failed", "upload_id", payload.UploadID, "pdf_id", payload.PDFID, "error", err)
		p.notifier.NotifyUploadProcessed(ctx, payload.UploadID, false, map[string]any{
			"error": err.Error(),
		})
		return err
	}

	if w := t.ResultWriter(); w != nil {
		if data, err := json.Marshal(result); err == nil {
			if _, err := w.Write(data); err != nil {
				logger.Warn("Failed to write task result", "upload_id", payload.UploadID, "error", err)
			}
		}
	}

	p.notifier.NotifyUploadProcessed(ctx, payload.UploadID, true, map[string]any{
		"pdf_id":      result.PDFID,
		"total_pages": result.TotalPages,
		"pdf_name":    result.PDFName,
		"message":     result.Message,
	})

	logger.Info("PDF ingestion finished", "upload_id", payload.UploadID, "pdf_id", payload.PDFID, "total_pages", result.TotalPages)
	return nil
}

func (p *TaskProcessor) ingest(ctx context.Context, payload IngestPDFPayload) (*models.IngestResult, error) {
	content, err := p.pdfService.Download(ctx, payload.SourceURL)
	if err != nil {
		return nil, err
	}

	pages, err := p.pdfService.ExtractPages(content)
	if err != nil {
		return nil, err
	}

	chunks := p.chunker.ChunkPages(pages, payload.PDFID, payload.PDFName)

	if err := p.vectorService.AddDocuments(ctx, chunks, payload.PDFID); err != nil {
		return nil, err
	}

	return &models.IngestResult{
		PDFID:      payload.PDFID,
		UploadID:   payload.UploadID,
		TotalPages: len(pages),
		PDFName:    payload.PDFName,
		Status:     "success",
		Message:    "PDF processed successfully",
	}, nil
}

// HandleGenerateQuiz generates a quiz and notifies the backend of the
// outcome.
func (p *TaskProcessor) HandleGenerateQuiz(ctx context.Context, t *asynq.Task) error {
	var payload GenerateQuizPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	logger.Info("Starting quiz generation", "exam_id", payload.ExamID, "quiz_type", payload.QuizType, "num_questions", payload.NumQuestions)

	questions, err := p.ragService.GenerateQuiz(ctx, models.QuizRequest{
		QuizType:     payload.QuizType,
		PDFIDs:       payload.PDFIDs,
		Topic:        payload.Topic,
		PageStart:    payload.PageStart,
		PageEnd:      payload.PageEnd,
		NumQuestions: payload.NumQuestions,
		Difficulty:   payload.Difficulty,
		ExamID:       payload.ExamID,
	})
	if err != nil {
		logger.Error("Quiz generation failed", "exam_id", payload.ExamID, "error", err)
		p.notifier.NotifyQuizGenerated(ctx, payload.ExamID, false, map[string]any{
			"error": err.Error(),
		})
		return err
	}

	result := models.QuizResult{
		QuizID:    payload.QuizID,
		Questions: questions,
		Metadata: models.QuizMetadata{
			QuizType:     payload.QuizType,
			NumQuestions: len(questions),
			Difficulty:   payload.Difficulty,
			Topic:        payload.Topic,
			PDFCount:     len(payload.PDFIDs),
		},
		ExamID:  payload.ExamID,
		Status:  "success",
		Message: "Quiz generated successfully",
	}

	if w := t.ResultWriter(); w != nil {
		if data, err := json.Marshal(result); err == nil {
			if _, err := w.Write(data); err != nil {
				logger.Warn("Failed to write task result", "exam_id", payload.ExamID, "error", err)
			}
		}
	}

	p.notifier.NotifyQuizGenerated(ctx, payload.ExamID, true, map[string]any{
		"quiz_id":   result.QuizID,
		"questions": result.Questions,
		"metadata":  result.Metadata,
		"message":   result.Message,
	})

	logger.Info("Quiz generation finished", "exam_id", payload.ExamID, "questions", len(questions))
	return nil
}
