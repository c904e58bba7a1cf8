package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
)

// ErrEmptyCompletion is returned when the model responds with no candidates
var ErrEmptyCompletion = errors.New("model returned an empty response")

// GeminiClient implements the completion and embedding capabilities on top
// of the Gemini SDK
type GeminiClient struct {
	client         *genai.Client
	modelName      string
	embeddingModel string
}

// NewGeminiClient wraps an initialized genai.Client
func NewGeminiClient(client *genai.Client, modelName, embeddingModel string) *GeminiClient {
	return &GeminiClient{
		client:         client,
		modelName:      modelName,
		embeddingModel: embeddingModel,
	}
}

// Complete runs a single completion call and returns the concatenated text
func (g *GeminiClient) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(opts.Temperature)

	if opts.SystemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(opts.SystemPrompt)},
		}
	}
	if opts.JSONMode {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("completion call failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyCompletion
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	if text == "" {
		return "", ErrEmptyCompletion
	}

	return text, nil
}

// Embed returns the embedding vector for one text
func (g *GeminiClient) Embed(ctx context.Context, text string) ([]float64, error) {
	em := g.client.EmbeddingModel(g.embeddingModel)

	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("embedding call failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, errors.New("embedding response contained no values")
	}

	vector := make([]float64, len(res.Embedding.Values))
	for i, v := range res.Embedding.Values {
		vector[i] = float64(v)
	}
	return vector, nil
}
