package main

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/AbhishekDash-2020331001/Quizzy/internal/ai"
	"github.com/AbhishekDash-2020331001/Quizzy/internal/config"
	"github.com/AbhishekDash-2020331001/Quizzy/internal/logger"
	"github.com/AbhishekDash-2020331001/Quizzy/internal/queue"
	"github.com/AbhishekDash-2020331001/Quizzy/internal/telemetry"
	"github.com/AbhishekDash-2020331001/Quizzy/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("quizzy-worker", cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("Tracing disabled", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	// Connect to Redis for job metadata
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	// AI clients
	embedder, err := ai.NewEmbedder(cfg.GeminiAPIKey, cfg.EmbeddingsModel)
	if err != nil {
		log.Fatal("Failed to initialize embedder:", err)
	}
	defer embedder.Close()

	geminiClient, err := ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiTier)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}
	defer geminiClient.Close()

	// Services
	db := mongoClient.Database(cfg.DBName)
	vectorService := services.NewVectorService(db, embedder)
	ragService := services.NewRAGService(vectorService, geminiClient, cfg)
	pdfService := services.NewPDFService(cfg)
	chunker := services.NewChunker(cfg.MaxChunkSize, cfg.ChunkOverlap)
	notifier := services.NewNotifier(cfg)

	redisOpt := config.AsynqRedisOpt(cfg)
	tracker := queue.NewJobTracker(redisOpt, rdb, cfg)
	defer tracker.Close()

	// Create Asynq server
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				queue.QueuePDFProcessing:  6, // 60% of workers
				queue.QueueQuizProcessing: 4, // 40% of workers
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	// Create task processor
	processor := queue.NewTaskProcessor(pdfService, vectorService, ragService, chunker, notifier)

	// Create mux and register handlers
	mux := asynq.NewServeMux()
	mux.Use(jobTimestamps(tracker))
	mux.HandleFunc(queue.TaskIngestPDF, processor.HandleIngestPDF)
	mux.HandleFunc(queue.TaskGenerateQuiz, processor.HandleGenerateQuiz)

	logger.Info("Starting worker",
		"concurrency", 10,
		"queues", "pdf_processing(6), quiz_processing(4)")

	// Start the server
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}

// jobTimestamps records started/ended times for the job tracker around
// every task execution.
func jobTimestamps(tracker *queue.JobTracker) asynq.MiddlewareFunc {
	return func(h asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			if id, ok := asynq.GetTaskID(ctx); ok {
				tracker.MarkStarted(ctx, id)
				defer tracker.MarkEnded(ctx, id)
			}
			return h.ProcessTask(ctx, t)
		})
	}
}
