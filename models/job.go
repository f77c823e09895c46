package models

// PDFUploadRequest enqueues ingestion of a PDF from a caller-owned URL.
type PDFUploadRequest struct {
	SourceURL string `json:"uploadthing_url" binding:"required"`
	UploadID  int64  `json:"upload_id" binding:"required"`
	PDFName   string `json:"pdf_name"`
}

// PDFUploadQueuedResponse acknowledges a queued ingestion job.
type PDFUploadQueuedResponse struct {
	JobID    string `json:"job_id"`
	PDFID    string `json:"pdf_id"`
	Message  string `json:"message"`
	UploadID int64  `json:"upload_id"`
	Status   string `json:"status"`
}

// IngestResult is the payload written on successful ingestion and delivered
// in the upload-processed webhook.
type IngestResult struct {
	PDFID      string `json:"pdf_id"`
	UploadID   int64  `json:"upload_id"`
	TotalPages int    `json:"total_pages"`
	PDFName    string `json:"pdf_name,omitempty"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// JobStatusResponse reports the lifecycle of a queued job.
type JobStatusResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"` // queued, started, finished, failed
	CreatedAt string `json:"created_at,omitempty"`
	StartedAt string `json:"started_at,omitempty"`
	EndedAt   string `json:"ended_at,omitempty"`
	Result    any    `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
}

// QueueStats holds per-state job counts for one queue.
type QueueStats struct {
	Name     string `json:"name"`
	Pending  int    `json:"pending_jobs"`
	Started  int    `json:"started_jobs"`
	Finished int    `json:"finished_jobs"`
	Failed   int    `json:"failed_jobs"`
}
