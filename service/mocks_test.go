package service

import (
	"context"
	"strings"
	"sync"
)

// mockCompletion routes prompts through a caller-provided function
type mockCompletion struct {
	mu    sync.Mutex
	calls int
	fn    func(prompt string, opts CompletionOptions) (string, error)
}

func (m *mockCompletion) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.fn(prompt, opts)
}

func (m *mockCompletion) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockEmbedding returns preset vectors keyed by normalized text
type mockEmbedding struct {
	mu       sync.Mutex
	calls    int
	vectors  map[string][]float64
	fallback []float64
}

func (m *mockEmbedding) Embed(ctx context.Context, text string) ([]float64, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if v, ok := m.vectors[NormalizeClaim(text)]; ok {
		return v, nil
	}
	return m.fallback, nil
}

func (m *mockEmbedding) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockSearch returns a fixed result set for every query
type mockSearch struct {
	results []SearchResult
	err     error
}

func (m *mockSearch) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

// pipelineMock answers every prompt shape the pipeline produces
func pipelineMock(claimLines string, verificationJSON string) *mockCompletion {
	return &mockCompletion{fn: func(prompt string, opts CompletionOptions) (string, error) {
		switch {
		case opts.JSONMode:
			return verificationJSON, nil
		case strings.Contains(prompt, "Identify strong scientific"):
			return claimLines, nil
		case strings.Contains(prompt, "worth fact-checking"):
			return "YES", nil
		case strings.Contains(prompt, "Rate the following claim"):
			return "8", nil
		case strings.Contains(prompt, "Summarize the key points"):
			return "The video discusses vaccine safety.", nil
		case strings.Contains(prompt, "partial summaries"):
			return "The video discusses vaccine safety.", nil
		}
		return "", nil
	}}
}
