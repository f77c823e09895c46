package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/AbhishekDash-2020331001/Quizzy/internal/config"
	"github.com/AbhishekDash-2020331001/Quizzy/internal/logger"
)

// Notifier delivers job-completion webhooks to the owning backend.
// Delivery is best effort: exhausted retries are logged, never surfaced,
// so a dead webhook endpoint cannot fail a finished job.
type Notifier struct {
	baseURL     string
	httpClient  *http.Client
	maxAttempts int
	backoffBase time.Duration
}

func NewNotifier(cfg *config.Config) *Notifier {
	return &Notifier{
		baseURL: cfg.WebhookBaseURL,
		httpClient: &http.Client{
			Timeout: cfg.WebhookTimeout,
		},
		maxAttempts: cfg.WebhookRetries,
		backoffBase: time.Second,
	}
}

// NotifyUploadProcessed reports the outcome of a PDF ingestion job.
func (n *Notifier) NotifyUploadProcessed(ctx context.Context, uploadID int64, success bool, fields map[string]any) {
	payload := map[string]any{
		"upload_id": uploadID,
		"success":   success,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range fields {
		payload[k] = v
	}

	url := fmt.Sprintf("%s/upload-processed/%d", n.baseURL, uploadID)
	n.deliver(ctx, url, payload)
}

// NotifyQuizGenerated reports the outcome of a quiz generation job.
func (n *Notifier) NotifyQuizGenerated(ctx context.Context, examID int64, success bool, fields map[string]any) {
	payload := map[string]any{
		"exam_id":   examID,
		"success":   success,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range fields {
		payload[k] = v
	}

	url := fmt.Sprintf("%s/quiz-generated/%d", n.baseURL, examID)
	n.deliver(ctx, url, payload)
}

// deliver posts the payload with exponential backoff: 1s, 2s, 4s between
// attempts. Timeouts, connection failures, and non-2xx responses all count
// as failed attempts. A job that hit its execution timeout hands over an
// already canceled context, so delivery runs detached from it, bounded by
// the per-attempt client timeout and the finite retry budget.
func (n *Notifier) deliver(ctx context.Context, url string, payload map[string]any) {
	ctx = context.WithoutCancel(ctx)

	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal webhook payload", "url", url, "error", err)
		return
	}

	for attempt := 1; attempt <= n.maxAttempts; attempt++ {
		if err := n.post(ctx, url, body); err == nil {
			logger.Info("Webhook delivered", "url", url, "attempt", attempt)
			return
		} else {
			logger.Warn("Webhook delivery failed", "url", url, "attempt", attempt, "error", err)
		}

		if attempt < n.maxAttempts {
			time.Sleep(n.backoffBase << (attempt - 1))
		}
	}

	logger.Error("Webhook delivery exhausted all attempts", "url", url, "attempts", n.maxAttempts)
}

func (n *Notifier) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
