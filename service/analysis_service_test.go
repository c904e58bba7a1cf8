package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"claimlens-backend/models"
)

const verificationOpposeJSON = `{
	"topic": "vaccine safety",
	"confidence": "High",
	"assessment": "This claim has been thoroughly debunked by large cohort studies.",
	"evidence": ["Danish cohort study of 657,461 children found no association"],
	"consensus": "There is no evidence linking vaccines to autism."
}`

func testTranscript(text string) *models.Transcript {
	return &models.Transcript{
		VideoID:    "abc123",
		Title:      "Vaccine Myths Explained",
		FullText:   text,
		CapturedAt: time.Now(),
		Segments: []models.TranscriptSegment{
			{Start: 12, End: 20, Text: "Some people say vaccines cause autism."},
		},
	}
}

func fastConfig() PipelineConfig {
	cfg := DefaultPipelineConfig()
	cfg.BaseDelay = time.Millisecond
	return cfg
}

func TestAnalyzeEndToEnd(t *testing.T) {
	llm := pipelineMock("vaccines: Vaccines cause autism.", verificationOpposeJSON)
	embedder := &mockEmbedding{fallback: []float64{1, 0, 0}}
	search := &mockSearch{results: []SearchResult{
		{Title: "Vaccine safety facts", Link: "https://cdc.gov/vaccinesafety", Snippet: "No link between vaccines and autism."},
		{Title: "Blog rant", Link: "https://example.com/truth", Snippet: "The real story."},
	}}

	svc := NewAnalysisService(
		WithCompletionClient(llm),
		WithEmbeddingClient(embedder),
		WithSearchClient(search),
		WithPipelineConfig(fastConfig()),
	)

	report, err := svc.Analyze(context.Background(), testTranscript("Today I will prove that vaccines cause autism. Trust me on this."), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Claims) != 1 {
		t.Fatalf("expected 1 claim section, got %d", len(report.Claims))
	}
	section := report.Claims[0]

	if section.AgreementStatus != models.AgreementOppose {
		t.Errorf("agreement = %v, want Oppose", section.AgreementStatus)
	}
	if section.Color != models.ColorOppose {
		t.Errorf("color = %q, want %q", section.Color, models.ColorOppose)
	}
	if len(section.Sources) != 1 || section.Sources[0].Domain != "cdc.gov" {
		t.Errorf("sources = %+v, want single cdc.gov source", section.Sources)
	}
	if section.RiskScore != 8 {
		t.Errorf("risk = %v, want 8", section.RiskScore)
	}

	if report.Summary == "" {
		t.Error("summary should be populated")
	}
	if !strings.Contains(report.Markdown, "# Video Claim Analysis Report") {
		t.Error("markdown missing report heading")
	}
	if report.Usage.CompletionCalls == 0 {
		t.Error("usage tracking recorded no completion calls")
	}
	if report.Usage.EmbeddingCalls == 0 {
		t.Error("usage tracking recorded no embedding calls")
	}
	if report.Usage.SearchCalls == 0 {
		t.Error("usage tracking recorded no search calls")
	}
	if report.ID == "" {
		t.Error("report should carry an ID")
	}
}

func TestAnalyzeEmptyTranscript(t *testing.T) {
	svc := NewAnalysisService(WithCompletionClient(pipelineMock("", "{}")))

	report, err := svc.Analyze(context.Background(), &models.Transcript{}, false)
	if !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("expected ErrEmptyTranscript, got %v", err)
	}
	if report != nil {
		t.Errorf("expected no report, got %+v", report)
	}
}

func TestAnalyzeNoClaimsFound(t *testing.T) {
	// The model extracts nothing; the pipeline still returns a complete,
	// well-formed report with a message and the summary
	llm := pipelineMock("", "{}")
	svc := NewAnalysisService(
		WithCompletionClient(llm),
		WithEmbeddingClient(&mockEmbedding{fallback: []float64{1}}),
		WithPipelineConfig(fastConfig()),
	)

	report, err := svc.Analyze(context.Background(), testTranscript("Hello and welcome to my vlog. Nothing factual today."), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Claims) != 0 {
		t.Errorf("expected no claims, got %v", report.Claims)
	}
	if report.Message == "" {
		t.Error("zero-claim reports must carry a message")
	}
	if report.Summary == "" {
		t.Error("summary should be populated even without claims")
	}
}

func TestAnalyzeDeduplicatesExtractedClaims(t *testing.T) {
	// The same claim from overlapping chunks must be verified only once
	llm := pipelineMock("vaccines: Vaccines cause autism.\nVACCINES: Vaccines cause autism.", verificationOpposeJSON)
	svc := NewAnalysisService(
		WithCompletionClient(llm),
		WithEmbeddingClient(&mockEmbedding{fallback: []float64{1, 0}}),
		WithPipelineConfig(fastConfig()),
	)

	report, err := svc.Analyze(context.Background(), testTranscript("Vaccines cause autism, I keep saying."), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Claims) != 1 {
		t.Errorf("expected duplicate claim collapsed to 1 section, got %d", len(report.Claims))
	}
}

func TestAnalyzeWithoutSearchClient(t *testing.T) {
	// Source fetching is optional; absence degrades to zero sources
	llm := pipelineMock("vaccines: Vaccines cause autism.", verificationOpposeJSON)
	svc := NewAnalysisService(
		WithCompletionClient(llm),
		WithEmbeddingClient(&mockEmbedding{fallback: []float64{1, 0}}),
		WithPipelineConfig(fastConfig()),
	)

	report, err := svc.Analyze(context.Background(), testTranscript("Vaccines cause autism, says me."), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Claims) != 1 {
		t.Fatalf("expected 1 claim, got %d", len(report.Claims))
	}
	if len(report.Claims[0].Sources) != 0 {
		t.Errorf("expected no sources, got %v", report.Claims[0].Sources)
	}
}

func TestAnalyzeExtractionFailureReturnsPartialReport(t *testing.T) {
	llm := &mockCompletion{fn: func(prompt string, opts CompletionOptions) (string, error) {
		if strings.Contains(prompt, "Identify strong scientific") {
			return "", errors.New("provider down")
		}
		if strings.Contains(prompt, "Summarize the key points") {
			return "A short video.", nil
		}
		return "", nil
	}}
	svc := NewAnalysisService(
		WithCompletionClient(llm),
		WithEmbeddingClient(&mockEmbedding{fallback: []float64{1}}),
		WithPipelineConfig(fastConfig()),
	)

	report, err := svc.Analyze(context.Background(), testTranscript("Some transcript text with one sentence."), false)
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
	if report == nil {
		t.Fatal("failures must still return a partial report")
	}
	if report.Message == "" {
		t.Error("partial report should explain the failure")
	}
	if len(report.Claims) != 0 {
		t.Errorf("partial report claims = %v, want empty", report.Claims)
	}
}

func TestAnalyzeMissingEmbedderFailsClustering(t *testing.T) {
	llm := pipelineMock("vaccines: Vaccines cause autism.", verificationOpposeJSON)
	svc := NewAnalysisService(
		WithCompletionClient(llm),
		WithPipelineConfig(fastConfig()),
	)

	report, err := svc.Analyze(context.Background(), testTranscript("Vaccines cause autism, again."), false)
	if err == nil {
		t.Fatal("expected an error without an embedding client")
	}
	if report == nil {
		t.Fatal("failures must still return a partial report")
	}
}

func TestAnalyzeFullReportKeepsAllClusters(t *testing.T) {
	// 12 distinct claims, orthogonal embeddings: top-K trims to 10 by
	// default, full report keeps all 12
	lines := make([]string, 12)
	vectors := make(map[string][]float64, 12)
	for i := range lines {
		topic := string(rune('a'+i)) + "topic"
		lines[i] = topic + ": Claim number " + string(rune('a'+i)) + " is true."
		vec := make([]float64, 12)
		vec[i] = 1
		vectors[NormalizeClaim(lines[i])] = vec
	}

	llm := pipelineMock(strings.Join(lines, "\n"), verificationOpposeJSON)
	embedder := &mockEmbedding{vectors: vectors}

	svc := NewAnalysisService(
		WithCompletionClient(llm),
		WithEmbeddingClient(embedder),
		WithPipelineConfig(fastConfig()),
	)
	report, err := svc.Analyze(context.Background(), testTranscript("A dozen different claims in one video."), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Claims) != 10 {
		t.Errorf("default run claims = %d, want top 10", len(report.Claims))
	}

	llm2 := pipelineMock(strings.Join(lines, "\n"), verificationOpposeJSON)
	svc2 := NewAnalysisService(
		WithCompletionClient(llm2),
		WithEmbeddingClient(&mockEmbedding{vectors: vectors}),
		WithPipelineConfig(fastConfig()),
	)
	fullReport, err := svc2.Analyze(context.Background(), testTranscript("A dozen different claims in one video."), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fullReport.Claims) != 12 {
		t.Errorf("full run claims = %d, want all 12", len(fullReport.Claims))
	}
}
