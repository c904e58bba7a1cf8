package main

import (
	"context"
	"log"
	"time"

	"claimlens-backend/cache"
	"claimlens-backend/config"
	"claimlens-backend/handlers"
	"claimlens-backend/logger"
	"claimlens-backend/repository"
	"claimlens-backend/service"
	"claimlens-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/api/option"
)

func main() {
	broadcaster := logger.NewBroadcaster()
	log.SetOutput(broadcaster)
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	ctx := context.Background()

	// Postgres is optional; without it, reports are simply not persisted
	var reportRepo *repository.ReportRepository
	if cfg.DatabaseURL != "" {
		db, err := initPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to initialize Postgres:", err)
		}
		defer db.Close()

		reportRepo = repository.NewReportRepository(db)
		if err := reportRepo.InitSchema(ctx); err != nil {
			log.Fatal("Failed to initialize schema:", err)
		}
	} else {
		log.Println("Warning: DATABASE_URL not set, running without report persistence")
	}

	// Initialize blob storage
	blobStore, err := storage.NewStorageFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	log.Println("Storage initialized")

	reportCache := cache.NewReportCache(ctx, cfg.RedisURL, 24*time.Hour)
	defer reportCache.Close()

	embeddingStore, err := cache.OpenEmbeddingStore(cfg.EmbeddingCacheDir)
	if err != nil {
		log.Printf("Warning: embedding store unavailable, embeddings will not persist: %v", err)
		embeddingStore = nil
	} else {
		defer embeddingStore.Close()
	}

	// Initialize Gemini client
	geminiClient, err := initGemini(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatal("Failed to initialize Gemini:", err)
	}
	llm := service.NewGeminiClient(geminiClient, cfg.GeminiModel, cfg.EmbeddingModel)

	var search service.SearchClient
	if cfg.SerperAPIKey != "" {
		search = service.NewSerperClient(cfg.SerperAPIKey)
		log.Println("Serper search client initialized")
	} else {
		log.Println("Warning: SERPER_API_KEY not set, source fetching disabled")
	}

	pipelineCfg := service.DefaultPipelineConfig()
	pipelineCfg.Chunk.MaxTokens = cfg.ChunkMaxTokens
	pipelineCfg.Chunk.OverlapTokens = cfg.ChunkOverlapTokens
	pipelineCfg.Chunk.MinChunkLength = cfg.ChunkMinLength
	pipelineCfg.ClusterThreshold = cfg.ClusterThreshold
	pipelineCfg.ExtractionBatchSize = cfg.ExtractionBatchSize
	pipelineCfg.VerifyBatchSize = cfg.VerifyBatchSize
	pipelineCfg.TopClaims = cfg.TopClaims
	pipelineCfg.MaxRetries = cfg.MaxRetries

	analysisService := service.NewAnalysisService(
		service.WithCompletionClient(llm),
		service.WithEmbeddingClient(llm),
		service.WithSearchClient(search),
		service.WithReportRepository(reportRepo),
		service.WithBlobStorage(blobStore),
		service.WithReportCache(reportCache),
		service.WithEmbeddingStore(embeddingStore),
		service.WithPipelineConfig(pipelineCfg),
	)

	analyzeHandler := handlers.NewAnalyzeHandler(analysisService)
	adminHandler := handlers.NewAdminHandler(cfg, analysisService, broadcaster)

	// Setup Gin router
	r := gin.Default()
	r.Use(corsMiddleware())

	r.GET("/health", analyzeHandler.Health)

	api := r.Group("/api")
	{
		api.POST("/analyze", analyzeHandler.Analyze)
		api.GET("/reports/:id", analyzeHandler.GetReport)

		admin := api.Group("/admin")
		// The log stream authenticates via token query parameter inside
		// the handler; websocket clients cannot send the password header
		admin.GET("/logs", adminHandler.StreamLogs)
		admin.Use(adminHandler.AuthMiddleware())
		admin.GET("/stats", adminHandler.GetStats)
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// corsMiddleware allows the browser extension to call the API
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Admin-Password")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

func initPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	log.Println("Postgres connection established")
	return pool, nil
}

func initGemini(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		log.Println("Warning: GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	log.Println("Gemini client initialized")
	return client, nil
}
