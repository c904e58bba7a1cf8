package service

import (
	"strings"

	"claimlens-backend/models"
)

// AgreementConfig holds the keyword lists and thresholds behind agreement
// classification. Kept as named configuration so deployments can tune the
// bias without code changes.
type AgreementConfig struct {
	// NegationKeywords force an Oppose classification when present
	NegationKeywords []string
	PositiveWords    []string
	NegativeWords    []string
	// SupportThreshold is the weighted sentiment score above which a claim
	// counts as supported
	SupportThreshold float64
}

// DefaultAgreementConfig deliberately biases toward flagging unsupported
// claims: the negation list is broad and the support threshold is high.
var DefaultAgreementConfig = AgreementConfig{
	NegationKeywords: []string{
		"no evidence",
		"not supported",
		"unsupported",
		"refuted",
		"debunked",
		"disproven",
		"contradict",
		"false",
		"incorrect",
		"misleading",
		"myth",
		"lacks evidence",
		"no scientific basis",
		"not accurate",
	},
	PositiveWords: []string{
		"supported", "confirmed", "consistent", "accurate", "valid",
		"established", "well-documented", "corroborated", "verified", "agrees",
	},
	NegativeWords: []string{
		"disputed", "doubtful", "questionable", "unproven", "weak",
		"inconclusive", "uncertain", "conflicting", "overstated", "exaggerated",
	},
	SupportThreshold: 1.5,
}

// ClassifyAgreement derives an agreement status from the verification
// assessment and consensus texts. Any negation keyword, or a non-positive
// sentiment score, classifies as Oppose; only a clearly positive score
// classifies as Support. Pure function, unit-testable without LLM calls.
func ClassifyAgreement(assessment, consensus string, cfg AgreementConfig) models.AgreementStatus {
	combined := strings.ToLower(assessment + " " + consensus)

	if containsNegationKeyword(combined, cfg.NegationKeywords) {
		return models.AgreementOppose
	}

	score := sentimentScore(combined, cfg)
	if score <= 0 {
		return models.AgreementOppose
	}
	if score > cfg.SupportThreshold {
		return models.AgreementSupport
	}
	return models.AgreementNeutral
}

func containsNegationKeyword(lowered string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// sentimentScore is a weighted word count: +1 per positive term, -1.5 per
// negative term. The heavier negative weight keeps the classifier skeptical.
func sentimentScore(lowered string, cfg AgreementConfig) float64 {
	var score float64
	for _, word := range cfg.PositiveWords {
		if strings.Contains(lowered, word) {
			score += 1
		}
	}
	for _, word := range cfg.NegativeWords {
		if strings.Contains(lowered, word) {
			score -= 1.5
		}
	}
	return score
}
