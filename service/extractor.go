package service

import (
	"context"
	"fmt"
	"log"
	"strings"
)

const extractionSystemPrompt = `You extract factual claims from video transcripts. ` +
	`You only output claims, one per line, in the exact format "topic: claim". ` +
	`No numbering, no bullets, no commentary.`

// extractClaimsFromChunk asks the model for candidate claims in one chunk.
// Each returned line has the form "topic: claim text"; malformed lines are
// dropped here, not surfaced as errors.
func extractClaimsFromChunk(ctx context.Context, llm CompletionClient, chunk string) ([]string, error) {
	prompt := fmt.Sprintf(`Given the following video transcript excerpt:

%s

Identify strong scientific or factual claims made by the speaker. For each claim output exactly one line in the format:
topic: claim text

The topic is a short subject label (2-5 words). The claim text restates the assertion made in the transcript. Output nothing but claim lines. If the excerpt contains no checkable claims, output nothing.`, chunk)

	response, err := llm.Complete(ctx, prompt, CompletionOptions{
		SystemPrompt: extractionSystemPrompt,
		Temperature:  0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("claim extraction failed: %w", err)
	}

	return parseClaimLines(response), nil
}

// parseClaimLines keeps only well-formed "topic: claim" lines
func parseClaimLines(response string) []string {
	var claims []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		if line == "" {
			continue
		}
		if _, _, ok := ParseClaim(line); ok {
			claims = append(claims, line)
		}
	}
	return claims
}

// ParseClaim splits a "topic: claim" line into its parts. Lines without the
// delimiter, or with an empty side, are rejected.
func ParseClaim(line string) (topic, text string, ok bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	topic = strings.TrimSpace(line[:idx])
	text = strings.TrimSpace(line[idx+1:])
	if topic == "" || text == "" {
		return "", "", false
	}
	return topic, text, true
}

// NormalizeClaim is the textual identity used for exact deduplication
// before clustering
func NormalizeClaim(line string) string {
	return strings.ToLower(strings.TrimSpace(line))
}

// shouldFactCheck asks a binary completion whether a claim is concrete and
// verifiable. The inclusion bias is deliberately generous: ambiguous or
// controversial claims stay in, and a failed call keeps the claim rather
// than dropping it.
func shouldFactCheck(ctx context.Context, llm CompletionClient, claim string) bool {
	prompt := fmt.Sprintf(`Claim: %s

Is this a concrete, verifiable assertion worth fact-checking against scientific literature? When in doubt, answer YES; only answer NO for statements with no checkable assertion at all (pure opinions, greetings, filler). Answer with a single word: YES or NO.`, claim)

	response, err := llm.Complete(ctx, prompt, CompletionOptions{Temperature: 0})
	if err != nil {
		log.Printf("Warning: claim filter call failed, keeping claim: %v", err)
		return true
	}

	answer := strings.ToUpper(strings.TrimSpace(response))
	return !strings.HasPrefix(answer, "NO")
}
