package service

import (
	"log"
	"regexp"
	"strings"
)

// ChunkOptions bounds transcript chunk sizes
type ChunkOptions struct {
	MaxTokens      int
	OverlapTokens  int
	MinChunkLength int
}

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+["')\]]?\s*`)

// EstimateTokens approximates token count as ceil(chars / 4). It is not an
// exact tokenizer; the chunk budget accounts for that slack.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// ChunkTranscript splits transcript text into overlapping, token-bounded
// chunks. Sentences are accumulated greedily; when the next sentence would
// exceed MaxTokens the chunk is closed and the next one is seeded with the
// last OverlapTokens words of the closed chunk so cross-boundary context
// survives.
//
// A single sentence longer than the budget is emitted whole rather than
// split mid-sentence, so callers must tolerate oversized chunks.
func ChunkTranscript(text string, opts ChunkOptions) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1000
	}

	sentences := sentencePattern.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{text}
	} else {
		indexes := sentencePattern.FindAllStringIndex(text, -1)
		// Trailing text without closing punctuation still belongs to the transcript
		if last := indexes[len(indexes)-1][1]; strings.TrimSpace(text[last:]) != "" {
			sentences = append(sentences, text[last:])
		}
	}

	var chunks []string
	var current strings.Builder

	closeChunk := func() string {
		chunk := strings.TrimSpace(current.String())
		current.Reset()
		if chunk == "" {
			return ""
		}
		if opts.MinChunkLength > 0 && len(chunk) < opts.MinChunkLength {
			log.Printf("Warning: chunk below minimum length (%d < %d chars), emitting anyway", len(chunk), opts.MinChunkLength)
		}
		chunks = append(chunks, chunk)
		return chunk
	}

	for _, sentence := range sentences {
		if current.Len() > 0 && EstimateTokens(current.String()+sentence) > opts.MaxTokens {
			closed := closeChunk()
			if overlap := tailWords(closed, opts.OverlapTokens); overlap != "" {
				current.WriteString(overlap)
				current.WriteString(" ")
			}
		}
		current.WriteString(sentence)
	}
	closeChunk()

	return chunks
}

// tailWords returns the last n whitespace-separated words of text
func tailWords(text string, n int) string {
	if n <= 0 || text == "" {
		return ""
	}
	words := strings.Fields(text)
	if len(words) > n {
		words = words[len(words)-n:]
	}
	return strings.Join(words, " ")
}
