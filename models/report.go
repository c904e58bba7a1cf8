package models

import (
	"database/sql/driver"
	"encoding/json"
)

// AgreementStatus classifies whether the verification evidence supports,
// opposes, or is neutral toward a claim
type AgreementStatus string

const (
	AgreementSupport AgreementStatus = "Support"
	AgreementOppose  AgreementStatus = "Oppose"
	AgreementNeutral AgreementStatus = "Neutral"
)

// Report section colors keyed by agreement status
const (
	ColorSupport = "#2ecc71"
	ColorOppose  = "#e74c3c"
	ColorNeutral = "#95a5a6"
)

// AgreementColor returns the display color for an agreement status
func AgreementColor(status AgreementStatus) string {
	switch status {
	case AgreementSupport:
		return ColorSupport
	case AgreementOppose:
		return ColorOppose
	default:
		return ColorNeutral
	}
}

// Confidence levels reported by claim verification
const (
	ConfidenceLow    = "Low"
	ConfidenceMedium = "Medium"
	ConfidenceHigh   = "High"
)

// Verification is the structured assessment of one claim against
// scientific consensus
type Verification struct {
	Topic      string   `json:"topic"`
	Confidence string   `json:"confidence"`
	Assessment string   `json:"assessment"`
	Evidence   []string `json:"evidence"`
	Consensus  string   `json:"consensus"`
}

// Source is one verified, allow-listed reference attached to a claim.
// The URL is always HTTPS and its domain always passes the trust list.
type Source struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Domain         string  `json:"domain"`
	Stance         string  `json:"stance"`
	Summary        string  `json:"summary,omitempty"`
	Authors        string  `json:"authors,omitempty"`
	Journal        string  `json:"journal,omitempty"`
	Year           int     `json:"year,omitempty"`
	IsPeerReviewed bool    `json:"is_peer_reviewed"`
	PublishedDate  string  `json:"published_date,omitempty"`
	Relevance      float64 `json:"relevance,omitempty"`
}

// ScoredClaim is a claim line together with its risk rating
type ScoredClaim struct {
	Claim     string  `json:"claim"`
	RiskScore float64 `json:"risk_score"`
	ClusterID int     `json:"cluster_id"`
}

// ReportSection is the final per-claim entry in a report. Created once
// during assembly and never mutated afterwards.
type ReportSection struct {
	Title           string          `json:"title"`
	Summary         string          `json:"summary"`
	Consensus       string          `json:"consensus"`
	Assessment      string          `json:"assessment"`
	Confidence      string          `json:"confidence"`
	Evidence        []string        `json:"evidence,omitempty"`
	Sources         []Source        `json:"sources"`
	AgreementStatus AgreementStatus `json:"agreement_status"`
	Color           string          `json:"color"`
	RiskScore       float64         `json:"risk_score"`
	Timestamps      []string        `json:"timestamps,omitempty"`
}

// UsageStats accumulates external-call accounting for one pipeline run
type UsageStats struct {
	CompletionCalls int     `json:"completion_calls"`
	EmbeddingCalls  int     `json:"embedding_calls"`
	SearchCalls     int     `json:"search_calls"`
	PromptChars     int     `json:"prompt_chars"`
	EstimatedTokens int     `json:"estimated_tokens"`
	EstimatedCost   float64 `json:"estimated_cost_usd"`
}

// FinalReport is the user-facing result of one analysis run
type FinalReport struct {
	ID           string          `json:"id"`
	VideoID      string          `json:"video_id,omitempty"`
	Title        string          `json:"title,omitempty"`
	Summary      string          `json:"summary"`
	Claims       []ReportSection `json:"claims"`
	Message      string          `json:"message,omitempty"`
	Markdown     string          `json:"markdown,omitempty"`
	Usage        UsageStats      `json:"usage"`
	ProcessingMs int64           `json:"processing_ms"`
}

// Value implements driver.Valuer for JSONB storage
func (r FinalReport) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB storage
func (r *FinalReport) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, r)
}
