package rag

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

type embeddingClient interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// OpenAIEmbedder turns text into dense vectors with an OpenAI embedding model.
type OpenAIEmbedder struct {
	client embeddingClient
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder builds an embedder.
// Defaults to text-embedding-3-small (1536 dimensions) when model is empty.
func NewOpenAIEmbedder(client embeddingClient, model string) *OpenAIEmbedder {
	if client == nil {
		panic("rag: embedding client cannot be nil")
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return &OpenAIEmbedder{client: client, model: openai.EmbeddingModel(model)}
}

// Embed returns the embedding vector for a single piece of text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("rag: create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("rag: embedding response had no data")
	}
	return resp.Data[0].Embedding, nil
}
