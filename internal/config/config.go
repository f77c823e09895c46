package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// MongoDB (vector collections live here, one per PDF)
	MongoURI string
	DBName   string

	// Redis / queue configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Gemini configuration
	GeminiAPIKey    string
	GeminiChatModel string
	GeminiQuizModel string
	EmbeddingsModel string
	GeminiTier      string

	// Chunking
	MaxChunkSize int
	ChunkOverlap int

	// PDF download
	DownloadTimeout time.Duration
	MaxPDFSize      int64

	// Job execution
	JobTimeout   time.Duration
	JobRetention time.Duration

	// Webhook delivery
	WebhookBaseURL string
	WebhookTimeout time.Duration
	WebhookRetries int

	// Tracing
	OTLPEndpoint   string
	TracingEnabled bool
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8001"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8000"), ","),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/quizzy"),
		DBName:   getEnv("DB_NAME", "quizzy"),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiChatModel: getEnv("GEMINI_CHAT_MODEL", "gemini-2.0-flash"),
		GeminiQuizModel: getEnv("GEMINI_QUIZ_MODEL", "gemini-2.0-flash"),
		EmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		GeminiTier:      getEnv("GEMINI_TIER", "free"),

		MaxChunkSize: getEnvInt("MAX_CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),

		DownloadTimeout: getEnvDuration("DOWNLOAD_TIMEOUT", 30*time.Second),
		MaxPDFSize:      getEnvInt64("MAX_PDF_SIZE", 104857600), // 100MB

		JobTimeout:   getEnvDuration("JOB_TIMEOUT", 30*time.Minute),
		JobRetention: getEnvDuration("JOB_RETENTION", 24*time.Hour),

		WebhookBaseURL: getEnv("WEBHOOK_BASE_URL", "http://localhost:8000/webhook"),
		WebhookTimeout: getEnvDuration("WEBHOOK_TIMEOUT", 30*time.Second),
		WebhookRetries: getEnvInt("WEBHOOK_RETRIES", 3),

		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
