package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"claimlens-backend/models"
)

// Fallback risk when the scoring call fails; keeps the claim in play
// without promoting it
const defaultRiskScore = 5.0

// scoreClaimRisk rates one claim 1-10 on a composite misinformation /
// ethical risk / controversy rubric. Failures degrade to the midpoint
// score so one bad call never drops a claim from the pipeline.
func scoreClaimRisk(ctx context.Context, llm CompletionClient, claim string) float64 {
	prompt := fmt.Sprintf(`Rate the following claim on a scale of 1 to 10, considering:
- potential for spreading misinformation if wrong
- ethical risk to people acting on it
- how controversial the claim is

Claim: %s

Respond with a single number between 1 and 10. No explanation.`, claim)

	response, err := llm.Complete(ctx, prompt, CompletionOptions{Temperature: 0})
	if err != nil {
		log.Printf("Warning: risk scoring failed for claim, using default: %v", err)
		return defaultRiskScore
	}

	score, err := parseScore(response)
	if err != nil {
		log.Printf("Warning: unparseable risk score %q, using default", strings.TrimSpace(response))
		return defaultRiskScore
	}
	return score
}

// parseScore extracts a float in [1,10] from a model response, clamping
// out-of-range values
func parseScore(response string) (float64, error) {
	fields := strings.Fields(strings.TrimSpace(response))
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty score response")
	}
	score, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], "."), 64)
	if err != nil {
		return 0, err
	}
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}
	return score, nil
}

// sortByRiskDescending orders scored claims by risk, highest first.
// The sort is stable: ties keep original extraction order.
func sortByRiskDescending(claims []models.ScoredClaim) {
	sort.SliceStable(claims, func(i, j int) bool {
		return claims[i].RiskScore > claims[j].RiskScore
	})
}
