package service

import (
	"context"
	"sync"

	"claimlens-backend/models"
)

// Rough blended price per estimated token, used only for the cost readout
const estimatedCostPerToken = 0.15 / 1_000_000

// UsageTracker accumulates external-call accounting for one pipeline run.
// Each run owns its own tracker; nothing is shared across requests.
type UsageTracker struct {
	mu    sync.Mutex
	stats models.UsageStats
}

// NewUsageTracker creates an empty tracker
func NewUsageTracker() *UsageTracker {
	return &UsageTracker{}
}

func (u *UsageTracker) recordCompletion(promptChars int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stats.CompletionCalls++
	u.stats.PromptChars += promptChars
	tokens := (promptChars + 3) / 4
	u.stats.EstimatedTokens += tokens
	u.stats.EstimatedCost += float64(tokens) * estimatedCostPerToken
}

func (u *UsageTracker) recordEmbedding() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stats.EmbeddingCalls++
}

func (u *UsageTracker) recordSearch() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stats.SearchCalls++
}

// Snapshot returns a copy of the accumulated stats
func (u *UsageTracker) Snapshot() models.UsageStats {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.stats
}

// trackedCompletion decorates a CompletionClient with usage accounting
type trackedCompletion struct {
	inner CompletionClient
	usage *UsageTracker
}

func (t *trackedCompletion) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	t.usage.recordCompletion(len(prompt) + len(opts.SystemPrompt))
	return t.inner.Complete(ctx, prompt, opts)
}

// trackedEmbedding decorates an EmbeddingClient with usage accounting
type trackedEmbedding struct {
	inner EmbeddingClient
	usage *UsageTracker
}

func (t *trackedEmbedding) Embed(ctx context.Context, text string) ([]float64, error) {
	t.usage.recordEmbedding()
	return t.inner.Embed(ctx, text)
}

// trackedSearch decorates a SearchClient with usage accounting
type trackedSearch struct {
	inner SearchClient
	usage *UsageTracker
}

func (t *trackedSearch) Search(ctx context.Context, query string) ([]SearchResult, error) {
	t.usage.recordSearch()
	return t.inner.Search(ctx, query)
}
