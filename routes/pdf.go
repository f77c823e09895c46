package routes

import (
	"errors"
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

// SetupPDFRoutes wires the document, job, and health endpoints.
func SetupPDFRoutes(router *gin.Engine, tracker *queue.JobTracker, vectors *services.VectorService) {
	pdf := router.Group("/pdf")

	pdf.POST("/upload", func(c *gin.Context) {
		var req models.PDFUploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		pdfID := uuid.NewString()
		logger.Info("Queueing PDF upload", "pdf_id", pdfID, "upload_id", req.UploadID)

		jobID, err := tracker.EnqueueIngest(c.Request.Context(), queue.IngestPDFPayload{
			SourceURL: req.SourceURL,
			UploadID:  req.UploadID,
			PDFName:   req.PDFName,
			PDFID:     pdfID,
		})
		if err != nil {
			logger.Error("Failed to queue PDF upload", "upload_id", req.UploadID, "error", err)
			utils.RespondWithInternalError(c, "Failed to queue PDF", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, models.PDFUploadQueuedResponse{
			JobID:    jobID,
			PDFID:    pdfID,
			Message:  "PDF upload queued for processing",
			UploadID: req.UploadID,
			Status:   "queued",
		})
	})

	pdf.GET("/job/:jobID/status", func(c *gin.Context) {
		jobID := c.Param("jobID")

		status, err := tracker.Status(c.Request.Context(), jobID)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				utils.RespondWithNotFound(c, "Job not found")
				return
			}
			logger.Error("Failed to get job status", "job_id", jobID, "error", err)
			utils.RespondWithInternalError(c, "Failed to get job status", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, status)
	})

	pdf.DELETE("/job/:jobID", func(c *gin.Context) {
		jobID := c.Param("jobID")

		cancelled, err := tracker.Cancel(c.Request.Context(), jobID)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				utils.RespondWithNotFound(c, "Job not found")
				return
			}
			logger.Error("Failed to cancel job", "job_id", jobID, "error", err)
			utils.RespondWithInternalError(c, "Failed to cancel job", gin.H{"error": err.Error()})
			return
		}

		if !cancelled {
			c.JSON(http.StatusOK, gin.H{
				"job_id":    jobID,
				"cancelled": false,
				"message":   "Job is already running or finished and cannot be cancelled",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"job_id":    jobID,
			"cancelled": true,
			"message":   "Job cancelled successfully",
		})
	})

	pdf.GET("/queue/info", func(c *gin.Context) {
		stats, err := tracker.Info(c.Request.Context())
		if err != nil {
			logger.Error("Failed to get queue info", "error", err)
			utils.RespondWithInternalError(c, "Failed to get queue info", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"queues": stats})
	})

	pdf.GET("/list", func(c *gin.Context) {
		pdfs, err := vectors.ListAll(c.Request.Context())
		if err != nil {
			logger.Error("Failed to list PDFs", "error", err)
			utils.RespondWithInternalError(c, "Failed to list PDFs", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"pdfs": pdfs, "total": len(pdfs)})
	})

	pdf.GET("/:pdfID/info", func(c *gin.Context) {
		pdfID := c.Param("pdfID")

		info, err := vectors.Describe(c.Request.Context(), pdfID)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				utils.RespondWithNotFound(c, "PDF not found")
				return
			}
			logger.Error("Failed to get PDF info", "pdf_id", pdfID, "error", err)
			utils.RespondWithInternalError(c, "Failed to get PDF info", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, info)
	})

	pdf.DELETE("/:pdfID", func(c *gin.Context) {
		pdfID := c.Param("pdfID")

		deleted, err := vectors.Delete(c.Request.Context(), pdfID)
		if err != nil {
			logger.Error("Failed to delete PDF", "pdf_id", pdfID, "error", err)
			utils.RespondWithInternalError(c, "Failed to delete PDF", gin.H{"error": err.Error()})
			return
		}
		if !deleted {
			utils.RespondWithNotFound(c, "PDF not found")
			return
		}

		logger.Info("Deleted PDF", "pdf_id", pdfID)
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("PDF %s deleted successfully", pdfID)})
	})

	pdf.GET("/health", func(c *gin.Context) {
		if err := vectors.Ping(c.Request.Context()); err != nil {
			utils.RespondWithError(c, http.StatusServiceUnavailable, "unhealthy", "Service unhealthy", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"services": gin.H{
				"vector_service": "operational",
				"pdf_service":    "operational",
				"rag_service":    "operational",
			},
		})
	})
}
