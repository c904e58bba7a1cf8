package models

import (
	"time"

	"github.com/google/uuid"
)

// PipelineStatus tracks which stage of the claims pipeline a run is in
type PipelineStatus string

const (
	StatusPending    PipelineStatus = "pending"
	StatusChunking   PipelineStatus = "chunking"
	StatusExtracting PipelineStatus = "extracting"
	StatusClustering PipelineStatus = "clustering"
	StatusVerifying  PipelineStatus = "verifying"
	StatusAssembling PipelineStatus = "assembling"
	StatusDone       PipelineStatus = "done"
	StatusFailed     PipelineStatus = "failed"
)

// AnalyzeRequest is the HTTP request body for POST /api/analyze
type AnalyzeRequest struct {
	Transcript      string              `json:"transcript"`
	VideoID         string              `json:"video_id,omitempty"`
	Title           string              `json:"title,omitempty"`
	Segments        []TranscriptSegment `json:"segments,omitempty"`
	FullReport      bool                `json:"full_report,omitempty"`
	ClientStartTime int64               `json:"client_start_time,omitempty"`
}

// AnalysisRecord is one persisted analysis run
type AnalysisRecord struct {
	ID        uuid.UUID      `json:"id"`
	VideoID   string         `json:"video_id"`
	Title     string         `json:"title"`
	Status    PipelineStatus `json:"status"`
	Report    FinalReport    `json:"report"`
	CreatedAt time.Time      `json:"created_at"`
}

// ClaimsSummary is the best-effort blob persisted after claim extraction.
// Version identifies the blob schema for future readers.
type ClaimsSummary struct {
	Version     int                 `json:"version"`
	VideoID     string              `json:"video_id"`
	Topics      []string            `json:"topics"`
	Clusters    map[string][]string `json:"clusters"`
	TotalClaims int                 `json:"total_claims"`
	KeptClaims  int                 `json:"kept_claims"`
	GeneratedAt time.Time           `json:"generated_at"`
}
