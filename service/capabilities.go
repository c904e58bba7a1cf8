package service

import "context"

// CompletionOptions tunes a single completion call
type CompletionOptions struct {
	SystemPrompt string
	Temperature  float32
	// JSONMode forces the model to return strictly valid JSON
	JSONMode bool
}

// CompletionClient is the text-completion capability consumed by the pipeline
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
}

// EmbeddingClient produces fixed-dimension vectors for claim texts. The same
// input must yield the same vector within a run for caching correctness.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// SearchResult is one raw web search hit before trust filtering
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Date    string `json:"date,omitempty"`
}

// SearchClient is the web search capability used for source fetching
type SearchClient interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}
