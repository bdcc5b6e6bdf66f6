package recommend

import (
	"context"

	"github.com/casai-labs/furnish/internal/domain"
)

// Embedder vectorizes query text into the shared embedding space.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// ImageEmbedder vectorizes a query image into the shared embedding space.
type ImageEmbedder interface {
	EmbedImage(ctx context.Context, image []byte) (domain.EmbeddingResult, error)
}
