package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/AbhishekDash-2020331001/Quizzy/internal/config"
	"github.com/AbhishekDash-2020331001/Quizzy/internal/logger"
	"github.com/AbhishekDash-2020331001/Quizzy/models"
	"github.com/AbhishekDash-2020331001/Quizzy/services"
)

const jobKeyPrefix = "quizzy:job:"

// JobTracker enqueues jobs and answers status queries. Asynq owns the task
// lifecycle; a small Redis hash per job carries the metadata asynq does not
// keep (kind, queue, created/started timestamps) so status responses can
// report the full timeline.
type JobTracker struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	rdb       *redis.Client
	timeout   time.Duration
	retention time.Duration
}

func NewJobTracker(redisOpt asynq.RedisConnOpt, rdb *redis.Client, cfg *config.Config) *JobTracker {
	return &JobTracker{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		rdb:       rdb,
		timeout:   cfg.JobTimeout,
		retention: cfg.JobRetention,
	}
}

func (jt *JobTracker) Close() error {
	if err := jt.client.Close(); err != nil {
		return err
	}
	return jt.inspector.Close()
}

func jobKey(jobID string) string {
	return jobKeyPrefix + jobID
}

// EnqueueIngest queues a PDF ingestion job and returns its id.
func (jt *JobTracker) EnqueueIngest(ctx context.Context, payload IngestPDFPayload) (string, error) {
	task, err := NewIngestPDFTask(payload, jt.timeout, jt.retention)
	if err != nil {
		return "", fmt.Errorf("failed to build ingest task: %w", err)
	}
	return jt.enqueue(ctx, task, TaskIngestPDF, QueuePDFProcessing)
}

// EnqueueQuiz queues a quiz generation job and returns its id.
func (jt *JobTracker) EnqueueQuiz(ctx context.Context, payload GenerateQuizPayload) (string, error) {
	task, err := NewGenerateQuizTask(payload, jt.timeout, jt.retention)
	if err != nil {
		return "", fmt.Errorf("failed to build quiz task: %w", err)
	}
	return jt.enqueue(ctx, task, TaskGenerateQuiz, QueueQuizProcessing)
}

func (jt *JobTracker) enqueue(ctx context.Context, task *asynq.Task, kind, queue string) (string, error) {
	info, err := jt.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	err = jt.rdb.HSet(ctx, jobKey(info.ID),
		"kind", kind,
		"queue", queue,
		"created_at", time.Now().UTC().Format(time.RFC3339),
	).Err()
	if err != nil {
		logger.Warn("Failed to record job metadata", "job_id", info.ID, "error", err)
	}
	jt.rdb.Expire(ctx, jobKey(info.ID), jt.retention+jt.timeout)

	logger.Info("Enqueued job", "job_id", info.ID, "kind", kind, "queue", queue)
	return info.ID, nil
}

// MarkStarted records the moment a worker picked the job up. Called from
// worker middleware.
func (jt *JobTracker) MarkStarted(ctx context.Context, jobID string) {
	err := jt.rdb.HSet(ctx, jobKey(jobID), "started_at", time.Now().UTC().Format(time.RFC3339)).Err()
	if err != nil {
		logger.Warn("Failed to record job start", "job_id", jobID, "error", err)
	}
}

// MarkEnded records the moment a job finished or failed.
func (jt *JobTracker) MarkEnded(ctx context.Context, jobID string) {
	err := jt.rdb.HSet(ctx, jobKey(jobID), "ended_at", time.Now().UTC().Format(time.RFC3339)).Err()
	if err != nil {
		logger.Warn("Failed to record job end", "job_id", jobID, "error", err)
	}
}

// Status merges asynq's task state with the tracked metadata.
func (jt *JobTracker) Status(ctx context.Context, jobID string) (*models.JobStatusResponse, error) {
	meta, err := jt.rdb.HGetAll(ctx, jobKey(jobID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: job metadata: %v", services.ErrStorage, err)
	}

	info, err := jt.findTask(meta["queue"], jobID)
	if err != nil {
		return nil, err
	}

	resp := &models.JobStatusResponse{
		JobID:     jobID,
		Status:    mapTaskState(info.State),
		CreatedAt: meta["created_at"],
		StartedAt: meta["started_at"],
		EndedAt:   meta["ended_at"],
	}

	if len(info.Result) > 0 {
		var result any
		if err := json.Unmarshal(info.Result, &result); err == nil {
			resp.Result = result
		}
	}
	if info.LastErr != "" {
		resp.Error = info.LastErr
	}

	return resp, nil
}

// Cancel removes a job that has not started yet. Running or completed jobs
// are reported as not cancelled.
func (jt *JobTracker) Cancel(ctx context.Context, jobID string) (bool, error) {
	meta, err := jt.rdb.HGetAll(ctx, jobKey(jobID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: job metadata: %v", services.ErrStorage, err)
	}

	info, err := jt.findTask(meta["queue"], jobID)
	if err != nil {
		return false, err
	}

	if info.State != asynq.TaskStatePending {
		return false, nil
	}

	if err := jt.inspector.DeleteTask(info.Queue, jobID); err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	jt.rdb.Del(ctx, jobKey(jobID))

	logger.Info("Cancelled job", "job_id", jobID, "queue", info.Queue)
	return true, nil
}

// Info reports per-state counts for both processing queues.
func (jt *JobTracker) Info(ctx context.Context) ([]models.QueueStats, error) {
	stats := make([]models.QueueStats, 0, 2)
	for _, queue := range []string{QueuePDFProcessing, QueueQuizProcessing} {
		qi, err := jt.inspector.GetQueueInfo(queue)
		if err != nil {
			// A queue that has never seen a task does not exist yet
			stats = append(stats, models.QueueStats{Name: queue})
			continue
		}
		stats = append(stats, models.QueueStats{
			Name:     queue,
			Pending:  qi.Pending,
			Started:  qi.Active,
			Finished: qi.Completed,
			Failed:   qi.Failed + qi.Retry + qi.Archived,
		})
	}
	return stats, nil
}

func (jt *JobTracker) findTask(queue, jobID string) (*asynq.TaskInfo, error) {
	queues := []string{QueuePDFProcessing, QueueQuizProcessing}
	if queue != "" {
		queues = []string{queue}
	}

	for _, q := range queues {
		info, err := jt.inspector.GetTaskInfo(q, jobID)
		if err == nil {
			return info, nil
		}
		if !errors.Is(err, asynq.ErrTaskNotFound) && !errors.Is(err, asynq.ErrQueueNotFound) {
			return nil, fmt.Errorf("failed to inspect task: %w", err)
		}
	}
	return nil, fmt.Errorf("%w: job %s", services.ErrNotFound, jobID)
}

// mapTaskState translates asynq task states into the job lifecycle exposed
// by the API.
func mapTaskState(state asynq.TaskState) string {
	switch state {
	case asynq.TaskStatePending, asynq.TaskStateScheduled, asynq.TaskStateAggregating:
		return "queued"
	case asynq.TaskStateActive:
		return "started"
	case asynq.TaskStateCompleted:
		return "finished"
	case asynq.TaskStateRetry, asynq.TaskStateArchived:
		return "failed"
	default:
		return "unknown"
	}
}
