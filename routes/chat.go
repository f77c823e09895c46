package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AbhishekDash-2020331001/Quizzy/internal/logger"
	"github.com/AbhishekDash-2020331001/Quizzy/models"
	"github.com/AbhishekDash-2020331001/Quizzy/services"
	"github.com/AbhishekDash-2020331001/Quizzy/utils"
)

// SetupChatRoutes wires the blocking and streaming chat endpoints.
func SetupChatRoutes(router *gin.Engine, rag *services.RAGService, vectors *services.VectorService) {
	pdf := router.Group("/pdf")

	pdf.POST("/chat", func(c *gin.Context) {
		req, ok := bindChatRequest(c, vectors)
		if !ok {
			return
		}

		answer, sources, err := rag.Chat(c.Request.Context(), req.PDFIDs, req.Message, req.ConversationHistory)
		if err != nil {
			logger.Error("Chat failed", "pdf_ids", req.PDFIDs, "error", err)
			utils.RespondWithInternalError(c, "Chat failed", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, models.ChatResponse{Response: answer, Sources: sources})
	})

	pdf.POST("/chat/stream", func(c *gin.Context) {
		req, ok := bindChatRequest(c, vectors)
		if !ok {
			return
		}

		c.Writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.WriteHeader(http.StatusOK)

		flusher, _ := c.Writer.(http.Flusher)

		emit := func(event models.StreamEvent) error {
			data, err := json.Marshal(event)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
				return err
			}
			if flusher != nil {
				flusher.Flush()
			}
			return nil
		}

		err := rag.ChatStream(c.Request.Context(), req.PDFIDs, req.Message, req.ConversationHistory, emit)
		if err != nil {
			// The client is gone or the writer failed; nothing left to send
			logger.Warn("Streaming chat aborted", "pdf_ids", req.PDFIDs, "error", err)
		}
	})
}

// bindChatRequest decodes and validates a chat request, writing the error
// response itself when validation fails.
func bindChatRequest(c *gin.Context, vectors *services.VectorService) (*models.ChatRequest, bool) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
		return nil, false
	}

	if strings.TrimSpace(req.Message) == "" {
		utils.RespondWithBadRequest(c, "Message cannot be empty", nil)
		return nil, false
	}
	if len(req.PDFIDs) == 0 {
		utils.RespondWithBadRequest(c, "At least one PDF ID is required", nil)
		return nil, false
	}

	for _, pdfID := range req.PDFIDs {
		if _, err := vectors.Describe(c.Request.Context(), pdfID); err != nil {
			if errors.Is(err, services.ErrNotFound) {
				utils.RespondWithNotFound(c, fmt.Sprintf("PDF with ID %s not found", pdfID))
				return nil, false
			}
			logger.Error("Failed to validate PDF", "pdf_id", pdfID, "error", err)
			utils.RespondWithInternalError(c, "Failed to validate PDF", gin.H{"error": err.Error()})
			return nil, false
		}
	}

	return &req, true
}
