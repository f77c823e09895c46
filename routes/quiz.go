package routes

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AbhishekDash-2020331001/Quizzy/internal/logger"
	"github.com/AbhishekDash-2020331001/Quizzy/internal/queue"
	"github.com/AbhishekDash-2020331001/Quizzy/models"
	"github.com/AbhishekDash-2020331001/Quizzy/services"
	"github.com/AbhishekDash-2020331001/Quizzy/utils"
)

// SetupQuizRoutes wires quiz generation.
func SetupQuizRoutes(router *gin.Engine, tracker *queue.JobTracker, vectors *services.VectorService) {
	pdf := router.Group("/pdf")

	pdf.POST("/generate-quiz", func(c *gin.Context) {
		var req models.QuizRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		if req.NumQuestions == 0 {
			req.NumQuestions = 5
		}
		if req.Difficulty == "" {
			req.Difficulty = "medium"
		}

		if msg := validateQuizRequest(c, &req, vectors); msg != "" {
			utils.RespondWithBadRequest(c, msg, nil)
			return
		}

		quizID := uuid.NewString()
		logger.Info("Queueing quiz generation", "quiz_id", quizID, "exam_id", req.ExamID, "quiz_type", req.QuizType)

		jobID, err := tracker.EnqueueQuiz(c.Request.Context(), queue.GenerateQuizPayload{
			QuizType:     req.QuizType,
			PDFIDs:       req.PDFIDs,
			Topic:        req.Topic,
			PageStart:    req.PageStart,
			PageEnd:      req.PageEnd,
			NumQuestions: req.NumQuestions,
			Difficulty:   req.Difficulty,
			ExamID:       req.ExamID,
			QuizID:       quizID,
		})
		if err != nil {
			logger.Error("Failed to queue quiz generation", "exam_id", req.ExamID, "error", err)
			utils.RespondWithInternalError(c, "Failed to queue quiz generation", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, models.QuizQueuedResponse{
			JobID:   jobID,
			QuizID:  quizID,
			Message: "Quiz generation queued for processing",
			ExamID:  req.ExamID,
			Status:  "queued",
		})
	})
}

// validateQuizRequest returns an error message for the client, or "" when
// the request is acceptable.
func validateQuizRequest(c *gin.Context, req *models.QuizRequest, vectors *services.VectorService) string {
	if !req.QuizType.Valid() {
		return fmt.Sprintf("Unknown quiz type %q", req.QuizType)
	}
	if len(req.PDFIDs) == 0 {
		return "At least one PDF ID is required"
	}
	if req.ExamID == 0 {
		return "exam_id is required for queued quiz generation"
	}
	if req.NumQuestions < 1 || req.NumQuestions > 20 {
		return "Number of questions must be between 1 and 20"
	}

	switch req.QuizType {
	case models.QuizTypeTopic:
		if req.Topic == "" {
			return "Topic is required for topic-based quiz"
		}
	case models.QuizTypeMultiPDFTopic:
		if req.Topic == "" {
			return "Topic is required for multi-PDF topic quiz"
		}
	case models.QuizTypePageRange:
		if req.PageStart == 0 || req.PageEnd == 0 {
			return "Page start and end are required for page range quiz"
		}
		if req.PageStart > req.PageEnd {
			return "Page start cannot be greater than page end"
		}
		if req.PageStart < 1 {
			return "Page numbers must be positive"
		}

		// Bound the range against the stored document when it is known
		info, err := vectors.Describe(c.Request.Context(), req.PDFIDs[0])
		if err == nil && info.TotalPages > 0 && req.PageEnd > info.TotalPages {
			return fmt.Sprintf("Page range %d-%d exceeds PDF length (%d pages)", req.PageStart, req.PageEnd, info.TotalPages)
		}
	}

	return ""
}
