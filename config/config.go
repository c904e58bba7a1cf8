package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration loaded from the environment
type Config struct {
	Port string

	// Gemini
	GeminiAPIKey   string
	GeminiModel    string
	EmbeddingModel string

	// Serper web search (optional; source fetching degrades without it)
	SerperAPIKey string

	// Infrastructure (all optional, best-effort)
	DatabaseURL       string
	RedisURL          string
	EmbeddingCacheDir string

	// Admin API (bcrypt hash of the admin password)
	AdminPasswordHash string

	// Pipeline tuning
	ChunkMaxTokens      int
	ChunkOverlapTokens  int
	ChunkMinLength      int
	ClusterThreshold    float64
	ExtractionBatchSize int
	VerifyBatchSize     int
	TopClaims           int
	MaxRetries          int
}

// Load reads configuration from .env / environment variables
func Load() (*Config, error) {
	godotenv.Load()

	return &Config{
		Port:                getEnvOrDefault("PORT", "8080"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModel:         getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		EmbeddingModel:      getEnvOrDefault("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
		SerperAPIKey:        os.Getenv("SERPER_API_KEY"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		EmbeddingCacheDir:   getEnvOrDefault("EMBEDDING_CACHE_DIR", "./storage/embeddings"),
		AdminPasswordHash:   os.Getenv("ADMIN_PASSWORD_HASH"),
		ChunkMaxTokens:      getEnvIntOrDefault("CHUNK_MAX_TOKENS", 1000),
		ChunkOverlapTokens:  getEnvIntOrDefault("CHUNK_OVERLAP_TOKENS", 50),
		ChunkMinLength:      getEnvIntOrDefault("CHUNK_MIN_LENGTH", 100),
		ClusterThreshold:    getEnvFloatOrDefault("CLUSTER_SIMILARITY_THRESHOLD", 0.85),
		ExtractionBatchSize: getEnvIntOrDefault("EXTRACTION_BATCH_SIZE", 3),
		VerifyBatchSize:     getEnvIntOrDefault("VERIFY_BATCH_SIZE", 2),
		TopClaims:           getEnvIntOrDefault("TOP_CLAIMS", 10),
		MaxRetries:          getEnvIntOrDefault("MAX_RETRIES", 3),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
