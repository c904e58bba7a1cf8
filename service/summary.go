package service

import (
	"context"
	"fmt"
	"strings"
)

// summarizeChunks produces the running video summary with a map-reduce
// pass: each chunk is summarized independently (batched), then the partial
// summaries are reduced by one final completion.
func summarizeChunks(ctx context.Context, llm CompletionClient, chunks []string, batchSize int) (string, error) {
	if len(chunks) == 0 {
		return "", nil
	}

	partials, err := RunBatches(ctx, chunks, func(ctx context.Context, chunk string) (string, error) {
		prompt := fmt.Sprintf(`Summarize the key points of this video transcript excerpt in 2-3 sentences:

%s`, chunk)
		return llm.Complete(ctx, prompt, CompletionOptions{Temperature: 0.3})
	}, BatchOptions{BatchSize: batchSize, OperationName: "summarize"})
	if err != nil {
		return "", fmt.Errorf("chunk summarization failed: %w", err)
	}

	if len(partials) == 1 {
		return strings.TrimSpace(partials[0]), nil
	}

	prompt := fmt.Sprintf(`The following are partial summaries of consecutive sections of one video. Combine them into a single coherent summary of the whole video, at most one paragraph:

%s`, strings.Join(partials, "\n\n"))

	summary, err := llm.Complete(ctx, prompt, CompletionOptions{Temperature: 0.3})
	if err != nil {
		return "", fmt.Errorf("summary reduction failed: %w", err)
	}
	return strings.TrimSpace(summary), nil
}
