package service

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"claimlens-backend/cache"
	"claimlens-backend/models"
	"claimlens-backend/repository"
	"claimlens-backend/storage"

	"github.com/google/uuid"
)

var (
	ErrEmptyTranscript  = errors.New("transcript is empty")
	ErrChunkingFailed   = errors.New("failed to chunk transcript")
	ErrExtractionFailed = errors.New("failed to extract claims")
	ErrClusteringFailed = errors.New("failed to cluster claims")
)

const claimsSummaryVersion = 1

// PipelineConfig holds every tunable of the claims pipeline
type PipelineConfig struct {
	Chunk               ChunkOptions
	ClusterThreshold    float64
	ExtractionBatchSize int
	VerifyBatchSize     int
	TopClaims           int
	ClusterTopN         int
	MaxRetries          int
	BaseDelay           time.Duration
}

// DefaultPipelineConfig returns the production defaults
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Chunk: ChunkOptions{
			MaxTokens:      1000,
			OverlapTokens:  50,
			MinChunkLength: 100,
		},
		ClusterThreshold:    0.85,
		ExtractionBatchSize: 3,
		VerifyBatchSize:     2,
		TopClaims:           10,
		ClusterTopN:         3,
		MaxRetries:          3,
		BaseDelay:           time.Second,
	}
}

// AnalysisService orchestrates the claims pipeline:
// chunk -> extract -> filter -> cluster -> score -> verify + sources -> report.
// All collaborators are injected; the service holds no per-request state, so
// one instance safely serves concurrent analyses.
type AnalysisService struct {
	llm            CompletionClient
	embedder       EmbeddingClient
	search         SearchClient
	reportRepo     *repository.ReportRepository
	blobStore      storage.Storage
	reportCache    *cache.ReportCache
	embeddingStore *cache.EmbeddingStore
	agreementCfg   AgreementConfig
	cfg            PipelineConfig
}

// AnalysisServiceOption is a functional option for AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// WithCompletionClient sets the completion capability
func WithCompletionClient(client CompletionClient) AnalysisServiceOption {
	return func(s *AnalysisService) { s.llm = client }
}

// WithEmbeddingClient sets the embedding capability
func WithEmbeddingClient(client EmbeddingClient) AnalysisServiceOption {
	return func(s *AnalysisService) { s.embedder = client }
}

// WithSearchClient sets the web search capability
func WithSearchClient(client SearchClient) AnalysisServiceOption {
	return func(s *AnalysisService) { s.search = client }
}

// WithReportRepository sets the report repository
func WithReportRepository(repo *repository.ReportRepository) AnalysisServiceOption {
	return func(s *AnalysisService) { s.reportRepo = repo }
}

// WithBlobStorage sets the blob storage backend
func WithBlobStorage(store storage.Storage) AnalysisServiceOption {
	return func(s *AnalysisService) { s.blobStore = store }
}

// WithReportCache sets the report cache
func WithReportCache(c *cache.ReportCache) AnalysisServiceOption {
	return func(s *AnalysisService) { s.reportCache = c }
}

// WithEmbeddingStore sets the persistent embedding store
func WithEmbeddingStore(store *cache.EmbeddingStore) AnalysisServiceOption {
	return func(s *AnalysisService) { s.embeddingStore = store }
}

// WithAgreementConfig overrides the agreement classifier configuration
func WithAgreementConfig(cfg AgreementConfig) AnalysisServiceOption {
	return func(s *AnalysisService) { s.agreementCfg = cfg }
}

// WithPipelineConfig overrides the pipeline tunables
func WithPipelineConfig(cfg PipelineConfig) AnalysisServiceOption {
	return func(s *AnalysisService) { s.cfg = cfg }
}

// NewAnalysisService creates an analysis service
func NewAnalysisService(opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{
		agreementCfg: DefaultAgreementConfig,
		cfg:          DefaultPipelineConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// verifiedClaim pairs one selected claim with its verification and sources
type verifiedClaim struct {
	claim        models.ScoredClaim
	verification models.Verification
	sources      []models.Source
}

// Analyze runs the full pipeline over one transcript. fullReport processes
// every surviving claim instead of only the top ones.
//
// Empty transcripts fail fast with ErrEmptyTranscript and no report. Any
// later stage failure returns a best-effort partial report alongside the
// error so the HTTP boundary can always respond with a well-formed body.
func (s *AnalysisService) Analyze(ctx context.Context, transcript *models.Transcript, fullReport bool) (*models.FinalReport, error) {
	started := time.Now()

	text := transcript.Text()
	if len(text) == 0 {
		return nil, ErrEmptyTranscript
	}
	if s.llm == nil {
		return nil, errors.New("completion client not set")
	}

	cacheKey := reportCacheKey(text, fullReport)
	if cached := s.loadCachedReport(ctx, cacheKey); cached != nil {
		log.Printf("[PIPELINE] cache hit for video %q", transcript.VideoID)
		return cached, nil
	}

	usage := NewUsageTracker()
	llm := &trackedCompletion{inner: s.llm, usage: usage}

	report := &models.FinalReport{
		ID:      uuid.New().String(),
		VideoID: transcript.VideoID,
		Title:   transcript.Title,
		Claims:  []models.ReportSection{},
	}
	fail := func(stage models.PipelineStatus, err error) (*models.FinalReport, error) {
		report.Message = fmt.Sprintf("Analysis failed during %s: %v", stage, err)
		report.Markdown = RenderMarkdown(report)
		report.Usage = usage.Snapshot()
		report.ProcessingMs = time.Since(started).Milliseconds()
		return report, err
	}

	// Chunking
	log.Printf("[PIPELINE] %s: %d chars", models.StatusChunking, len(text))
	chunks := ChunkTranscript(text, s.cfg.Chunk)
	if len(chunks) == 0 {
		return fail(models.StatusChunking, ErrChunkingFailed)
	}
	log.Printf("[PIPELINE] %d chunks", len(chunks))

	// The summary path runs independently of the claims path and joins at
	// assembly
	summaryCh := make(chan string, 1)
	go func() {
		summary, err := summarizeChunks(ctx, llm, chunks, s.cfg.ExtractionBatchSize)
		if err != nil {
			log.Printf("Warning: summary generation failed: %v", err)
		}
		summaryCh <- summary
	}()

	// Extracting
	log.Printf("[PIPELINE] %s", models.StatusExtracting)
	rawClaims, err := s.extractClaims(ctx, llm, chunks)
	if err != nil {
		report.Summary = <-summaryCh
		return fail(models.StatusExtracting, err)
	}
	log.Printf("[PIPELINE] %d raw claims", len(rawClaims))

	// Filtering: one binary call per claim, generous inclusion bias,
	// per-item failures keep the claim
	filtered, err := RunBatches(ctx, rawClaims, func(ctx context.Context, claim string) (bool, error) {
		return shouldFactCheck(ctx, llm, claim), nil
	}, BatchOptions{BatchSize: s.cfg.ExtractionBatchSize, OperationName: "filter-claims"})
	if err != nil {
		report.Summary = <-summaryCh
		return fail(models.StatusExtracting, err)
	}
	var claims []string
	for i, keep := range filtered {
		if keep {
			claims = append(claims, rawClaims[i])
		}
	}
	log.Printf("[PIPELINE] %d claims after filtering", len(claims))

	// Clustering and scoring
	log.Printf("[PIPELINE] %s", models.StatusClustering)
	selected, clusterSummary, err := s.clusterAndScore(ctx, llm, usage, claims, fullReport)
	if err != nil {
		report.Summary = <-summaryCh
		return fail(models.StatusClustering, err)
	}
	log.Printf("[PIPELINE] %d claims selected for verification", len(selected))

	s.persistClaimsSummary(ctx, transcript, rawClaims, claims, clusterSummary)

	// Verifying + source fetching, parallel per claim
	log.Printf("[PIPELINE] %s", models.StatusVerifying)
	fetcher := NewSourceFetcher(s.searchClient(usage), s.agreementCfg)
	verified, err := RunBatches(ctx, selected, func(ctx context.Context, claim models.ScoredClaim) (verifiedClaim, error) {
		result := verifiedClaim{claim: claim}
		done := make(chan struct{})
		go func() {
			result.sources = fetcher.FetchSources(ctx, claim.Claim)
			close(done)
		}()
		result.verification = verifyClaim(ctx, llm, claim.Claim)
		<-done
		return result, nil
	}, BatchOptions{BatchSize: s.cfg.VerifyBatchSize, OperationName: "verify-claims"})
	if err != nil {
		report.Summary = <-summaryCh
		return fail(models.StatusVerifying, err)
	}

	// Assembling
	log.Printf("[PIPELINE] %s", models.StatusAssembling)
	for _, v := range verified {
		report.Claims = append(report.Claims, assembleSection(v.claim, v.verification, v.sources, transcript.Segments, s.agreementCfg))
	}
	if len(report.Claims) == 0 {
		report.Message = "No verifiable scientific claims were found in this video."
	}

	report.Summary = <-summaryCh
	report.Markdown = RenderMarkdown(report)
	report.Usage = usage.Snapshot()
	report.ProcessingMs = time.Since(started).Milliseconds()

	s.persistReport(ctx, transcript, report)
	s.cacheReport(ctx, cacheKey, report)

	log.Printf("[PIPELINE] %s: %d claims, %d completion calls, %v", models.StatusDone,
		len(report.Claims), report.Usage.CompletionCalls, time.Since(started).Round(time.Millisecond))

	return report, nil
}

// extractClaims runs claim extraction over chunks with retry, flattens the
// results and deduplicates exact (normalized) claim strings
func (s *AnalysisService) extractClaims(ctx context.Context, llm CompletionClient, chunks []string) ([]string, error) {
	perChunk, err := RunBatches(ctx, chunks, func(ctx context.Context, chunk string) ([]string, error) {
		return WithRetry(ctx, func(ctx context.Context) ([]string, error) {
			return extractClaimsFromChunk(ctx, llm, chunk)
		}, RetryOptions{MaxRetries: s.cfg.MaxRetries, BaseDelay: s.cfg.BaseDelay})
	}, BatchOptions{BatchSize: s.cfg.ExtractionBatchSize, OperationName: "extract-claims"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	seen := make(map[string]bool)
	var claims []string
	for _, chunkClaims := range perChunk {
		for _, claim := range chunkClaims {
			key := NormalizeClaim(claim)
			if !seen[key] {
				seen[key] = true
				claims = append(claims, claim)
			}
		}
	}
	return claims, nil
}

// clusterAndScore clusters the filtered claims, risk-scores every member,
// and returns the per-cluster representatives ranked by risk (top-K unless
// fullReport) plus the formatted per-cluster summary kept for persistence.
func (s *AnalysisService) clusterAndScore(ctx context.Context, llm CompletionClient, usage *UsageTracker, claims []string, fullReport bool) ([]models.ScoredClaim, map[string][]string, error) {
	if len(claims) == 0 {
		return nil, map[string][]string{}, nil
	}
	if s.embedder == nil {
		return nil, nil, errors.New("embedding client not set")
	}

	embeddings := NewEmbeddingCache(&trackedEmbedding{inner: s.embedder, usage: usage}, s.embeddingStore)
	clusters, err := ClusterClaims(ctx, embeddings, claims, s.cfg.ClusterThreshold, s.cfg.ExtractionBatchSize)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrClusteringFailed, err)
	}
	log.Printf("[PIPELINE] %d clusters from %d claims", len(clusters), len(claims))

	scores, err := RunBatches(ctx, claims, func(ctx context.Context, claim string) (float64, error) {
		return scoreClaimRisk(ctx, llm, claim), nil
	}, BatchOptions{BatchSize: s.cfg.ExtractionBatchSize, OperationName: "score-claims"})
	if err != nil {
		return nil, nil, err
	}

	clusterSummary := make(map[string][]string, len(clusters))
	var representatives []models.ScoredClaim

	for clusterID, members := range clusters {
		scored := make([]models.ScoredClaim, 0, len(members))
		for _, idx := range members {
			scored = append(scored, models.ScoredClaim{
				Claim:     claims[idx],
				RiskScore: scores[idx],
				ClusterID: clusterID,
			})
		}
		sortByRiskDescending(scored)

		topN := s.cfg.ClusterTopN
		if topN <= 0 || topN > len(scored) {
			topN = len(scored)
		}
		lines := make([]string, 0, topN)
		for _, member := range scored[:topN] {
			lines = append(lines, fmt.Sprintf("[Risk Score: %.1f] %s", member.RiskScore, member.Claim))
		}
		clusterSummary[fmt.Sprintf("Cluster %d", clusterID+1)] = lines

		representatives = append(representatives, scored[0])
	}

	sortByRiskDescending(representatives)
	if !fullReport && len(representatives) > s.cfg.TopClaims {
		representatives = representatives[:s.cfg.TopClaims]
	}

	return representatives, clusterSummary, nil
}

func (s *AnalysisService) searchClient(usage *UsageTracker) SearchClient {
	if s.search == nil {
		return nil
	}
	return &trackedSearch{inner: s.search, usage: usage}
}

// persistClaimsSummary writes the claims summary blob. Best-effort: failure
// is logged and never surfaces to the caller.
func (s *AnalysisService) persistClaimsSummary(ctx context.Context, transcript *models.Transcript, raw, kept []string, clusters map[string][]string) {
	if s.blobStore == nil {
		return
	}

	topics := make([]string, 0, len(kept))
	for _, claim := range kept {
		if topic, _, ok := ParseClaim(claim); ok {
			topics = append(topics, topic)
		}
	}

	summary := models.ClaimsSummary{
		Version:     claimsSummaryVersion,
		VideoID:     transcript.VideoID,
		Topics:      topics,
		Clusters:    clusters,
		TotalClaims: len(raw),
		KeptClaims:  len(kept),
		GeneratedAt: time.Now().UTC(),
	}

	if err := storage.UploadJSON(ctx, s.blobStore, "claims-summary-"+transcript.VideoID+".json", summary); err != nil {
		log.Printf("Warning: failed to persist claims summary: %v", err)
	}
}

// persistReport saves the report row and domain stats. Best-effort.
func (s *AnalysisService) persistReport(ctx context.Context, transcript *models.Transcript, report *models.FinalReport) {
	if s.reportRepo == nil {
		return
	}

	record := &models.AnalysisRecord{
		VideoID: transcript.VideoID,
		Title:   transcript.Title,
		Status:  models.StatusDone,
		Report:  *report,
	}
	if id, err := uuid.Parse(report.ID); err == nil {
		record.ID = id
	} else {
		record.ID = uuid.New()
	}

	if err := s.reportRepo.Create(ctx, record); err != nil {
		log.Printf("Warning: failed to persist analysis report: %v", err)
		return
	}

	for _, section := range report.Claims {
		for _, source := range section.Sources {
			if err := s.reportRepo.UpsertDomainStats(ctx, source.Domain, source.Relevance); err != nil {
				log.Printf("Warning: failed to update domain stats for %s: %v", source.Domain, err)
			}
		}
	}
}

func (s *AnalysisService) loadCachedReport(ctx context.Context, key string) *models.FinalReport {
	if s.reportCache == nil {
		return nil
	}
	data, err := s.reportCache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("Warning: report cache read failed: %v", err)
		}
		return nil
	}
	var report models.FinalReport
	if err := json.Unmarshal(data, &report); err != nil {
		log.Printf("Warning: discarding corrupt cached report: %v", err)
		return nil
	}
	return &report
}

func (s *AnalysisService) cacheReport(ctx context.Context, key string, report *models.FinalReport) {
	if s.reportCache == nil {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.reportCache.Set(ctx, key, data); err != nil {
		log.Printf("Warning: report cache write failed: %v", err)
	}
}

func reportCacheKey(text string, fullReport bool) string {
	h := sha256.Sum256([]byte(text))
	key := fmt.Sprintf("report:%x", h)
	if fullReport {
		key += ":full"
	}
	return key
}

// GetReport loads a persisted report by ID
func (s *AnalysisService) GetReport(ctx context.Context, id uuid.UUID) (*models.AnalysisRecord, error) {
	if s.reportRepo == nil {
		return nil, errors.New("report repository not set")
	}
	return s.reportRepo.GetByID(ctx, id)
}

// TopDomains returns the most frequently used source domains
func (s *AnalysisService) TopDomains(ctx context.Context, limit int) ([]repository.DomainStat, error) {
	if s.reportRepo == nil {
		return nil, errors.New("report repository not set")
	}
	return s.reportRepo.TopDomains(ctx, limit)
}
