package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/casai-labs/furnish/internal/domain"
)

// EmbedImage implements domain.ImageEmbedder: the raw encoded image becomes a
// data URL in the embedding input. The server side (a CLIP-style model)
// projects it into the same vector space as text.
func (e *Embedder) EmbedImage(ctx context.Context, image []byte) (domain.EmbeddingResult, error) {
	url, err := dataURL(image)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}

	res, err := e.createEmbeddings(ctx, []string{url})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbedImage implements domain.BatchImageEmbedder in a single API call.
func (e *Embedder) BatchEmbedImage(ctx context.Context, images [][]byte) (domain.BatchEmbeddingResult, error) {
	if len(images) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	inputs := make([]string, len(images))
	for i, img := range images {
		url, err := dataURL(img)
		if err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("image [%d]: %w", i, err)
		}
		inputs[i] = url
	}

	return e.createEmbeddings(ctx, inputs)
}

// dataURL encodes image bytes as a data URL, sniffing the content type.
func dataURL(image []byte) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("empty image data: %w", domain.ErrImageDecode)
	}

	contentType := http.DetectContentType(image)
	switch contentType {
	case "image/jpeg", "image/png", "image/webp", "image/gif":
	default:
		return "", fmt.Errorf("unsupported content type %s: %w", contentType, domain.ErrImageDecode)
	}

	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(image), nil
}
