package embedding

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/optiprice/backend/internal/domain"
)

// OpenAIBackend calls an OpenAI-compatible /embeddings endpoint
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

// NewOpenAIBackend creates a backend; baseURL overrides the default API location
func NewOpenAIBackend(baseURL, model, apiKey string) *OpenAIBackend {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}

	return &OpenAIBackend{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Embed requests all inputs in one call and reorders the data by index
func (b *OpenAIBackend) Embed(ctx context.Context, batch []string) (Result, error) {
	resp, err := b.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: batch,
		Model: openai.EmbeddingModel(b.model),
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return providerError("%s", apiErr.Message), nil
		}
		return Result{}, err
	}

	vectors := make([]domain.EmbeddingVector, len(resp.Data))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) || vectors[item.Index] != nil {
			return providerError("misaligned embedding index %d", item.Index), nil
		}
		vec := make(domain.EmbeddingVector, len(item.Embedding))
		for i, x := range item.Embedding {
			vec[i] = float64(x)
		}
		vectors[item.Index] = vec
	}

	return vectorsResult(vectors), nil
}
