package domain

import (
	"context"
	"fmt"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// ImageEmbedder vectorizes a raw encoded image (jpeg/png bytes).
// Text and image vectors share one embedding space (CLIP-style model),
// so results from both embedders are directly comparable.
type ImageEmbedder interface {
	EmbedImage(ctx context.Context, image []byte) (EmbeddingResult, error)
}

// BatchImageEmbedder vectorizes multiple images in a single API call.
type BatchImageEmbedder interface {
	BatchEmbedImage(ctx context.Context, images [][]byte) (BatchEmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// BatchImageFallback calls EmbedImage one image at a time. Safety net for
// providers without native batch support.
func BatchImageFallback(ctx context.Context, e ImageEmbedder, images [][]byte) (BatchEmbeddingResult, error) {
	embeddings := make([][]float32, len(images))
	var totalPrompt, totalTokens int

	for i, img := range images {
		res, err := e.EmbedImage(ctx, img)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("fallback embed image [%d]: %w", i, err)
		}
		embeddings[i] = res.Embedding
		totalPrompt += res.PromptTokens
		totalTokens += res.TotalTokens
	}

	return BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}

// InstructionEmbedder is a domain decorator that prepends instruction text before embedding.
type InstructionEmbedder struct {
	inner       Embedder
	instruction string
}

// NewInstructionEmbedder creates a decorator that prepends instruction text.
func NewInstructionEmbedder(inner Embedder, instruction string) *InstructionEmbedder {
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

// Embed prepends instruction and delegates to inner embedder.
func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, e.instruction+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return result, nil
}
