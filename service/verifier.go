package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"claimlens-backend/models"
)

const verifierSystemPrompt = `You are a scientific fact-checker. You compare claims ` +
	`against established scientific literature and consensus, and you respond only ` +
	`with the requested JSON object.`

// verifyClaim asks for a structured verification of one "topic: claim" line.
// Any failure (call error, malformed JSON, missing fields) yields a degraded
// but well-formed Low-confidence verification instead of an error, so one
// bad claim never aborts the batch.
func verifyClaim(ctx context.Context, llm CompletionClient, claimLine string) models.Verification {
	topic, text, ok := ParseClaim(claimLine)
	if !ok {
		topic = claimLine
		text = claimLine
	}

	prompt := fmt.Sprintf(`Claim topic: %s
Claim: %s

Compare this claim with established scientific literature and consensus. Respond with a JSON object with exactly these fields:
{
  "topic": "short topic label",
  "confidence": "Low" | "Medium" | "High",
  "assessment": "one-paragraph accuracy assessment of the claim",
  "evidence": ["key piece of evidence", ...],
  "consensus": "one-paragraph statement of the current scientific consensus"
}`, topic, text)

	response, err := llm.Complete(ctx, prompt, CompletionOptions{
		SystemPrompt: verifierSystemPrompt,
		Temperature:  0.1,
		JSONMode:     true,
	})
	if err != nil {
		log.Printf("Warning: verification call failed for %q: %v", topic, err)
		return degradedVerification(topic, text)
	}

	var verification models.Verification
	if err := json.Unmarshal([]byte(extractJSONObject(response)), &verification); err != nil {
		log.Printf("Warning: unparseable verification for %q: %v", topic, err)
		return degradedVerification(topic, text)
	}

	if verification.Topic == "" {
		verification.Topic = topic
	}
	switch verification.Confidence {
	case models.ConfidenceLow, models.ConfidenceMedium, models.ConfidenceHigh:
	default:
		verification.Confidence = models.ConfidenceLow
	}
	if verification.Assessment == "" {
		verification.Assessment = "No assessment available."
	}
	if verification.Consensus == "" {
		verification.Consensus = "No consensus information available."
	}

	return verification
}

// degradedVerification is the placeholder returned when verification fails
func degradedVerification(topic, text string) models.Verification {
	return models.Verification{
		Topic:      topic,
		Confidence: models.ConfidenceLow,
		Assessment: "Verification unavailable for this claim; treat it with caution.",
		Evidence:   []string{},
		Consensus:  "Could not retrieve scientific consensus for: " + text,
	}
}

// extractJSONObject trims markdown fences and surrounding prose, returning
// the outermost {...} span when one exists
func extractJSONObject(text string) string {
	if strings.Contains(text, "```") {
		if start := strings.Index(text, "```json"); start != -1 {
			rest := text[start+7:]
			if end := strings.Index(rest, "```"); end != -1 {
				text = rest[:end]
			}
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		return text[start : end+1]
	}
	return text
}
