package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/casai-labs/furnish/internal/domain"
	"github.com/casai-labs/furnish/internal/metrics"
)

// DefaultMaxAPIBatchSize is the maximum batch size for a single image API request.
const DefaultMaxAPIBatchSize = 64

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// InstrumentedEmbedder wraps text and image embedders with budget enforcement
// and logging. Transport metrics (requests, duration, tokens) are recorded in
// transport/openai. This layer owns budget tracking and budget-related metrics only.
type InstrumentedEmbedder struct {
	inner      domain.Embedder
	innerImage domain.ImageEmbedder
	provider   string
	model      string
	budget     BudgetChecker
	logger     *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder pair with budget and observability.
// innerImage may be nil when the provider has no image endpoint.
func NewInstrumentedEmbedder(
	inner domain.Embedder, innerImage domain.ImageEmbedder, provider, model string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:      inner,
		innerImage: innerImage,
		provider:   provider,
		model:      model,
		budget:     budget,
		logger:     logger,
	}
}

// Embed checks budget, delegates to the inner embedder, and records usage.
func (p *InstrumentedEmbedder) Embed(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	if err := p.checkBudget(ctx, "text"); err != nil {
		return domain.EmbeddingResult{}, err
	}

	start := time.Now()

	result, err := p.inner.Embed(ctx, text)

	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	p.recordBudget(result.TotalTokens)

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// EmbedImage checks budget, delegates to the inner image embedder, and records usage.
func (p *InstrumentedEmbedder) EmbedImage(
	ctx context.Context, image []byte,
) (domain.EmbeddingResult, error) {
	if p.innerImage == nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed image: provider %q has no image endpoint", p.provider)
	}

	if err := p.checkBudget(ctx, "image"); err != nil {
		return domain.EmbeddingResult{}, err
	}

	start := time.Now()

	result, err := p.innerImage.EmbedImage(ctx, image)

	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Image embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Int("image_bytes", len(image)),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed image: %w", err)
	}

	p.recordBudget(result.TotalTokens)

	p.logger.Debug("Image embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("image_bytes", len(image)),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// BatchEmbedImage checks budget, splits into sub-batches, and delegates to inner.
func (p *InstrumentedEmbedder) BatchEmbedImage(
	ctx context.Context, images [][]byte,
) (domain.BatchEmbeddingResult, error) {
	if len(images) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	if p.innerImage == nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed image: provider %q has no image endpoint", p.provider)
	}

	if err := p.checkBudget(ctx, "image_batch"); err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	start := time.Now()

	result, err := p.embedImagesChunked(ctx, images)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	duration := time.Since(start)
	p.recordBudget(result.TotalTokens)

	p.logger.Debug("Batch image embedding completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("batch_size", len(images)),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// embedImagesChunked splits images into chunks of DefaultMaxAPIBatchSize with budget re-checks.
func (p *InstrumentedEmbedder) embedImagesChunked(
	ctx context.Context, images [][]byte,
) (domain.BatchEmbeddingResult, error) {
	var allEmbeddings [][]float32
	var totalPrompt, totalTokens int

	for offset := 0; offset < len(images); offset += DefaultMaxAPIBatchSize {
		if p.budget != nil && offset > 0 {
			if err := p.budget.Check(ctx); err != nil {
				return domain.BatchEmbeddingResult{}, fmt.Errorf("budget check (chunk %d): %w", offset, err)
			}
		}

		end := offset + DefaultMaxAPIBatchSize
		if end > len(images) {
			end = len(images)
		}
		chunk := images[offset:end]

		chunkResult, err := p.embedImagesInner(ctx, chunk)
		if err != nil {
			p.logger.Error("Batch image embedding request failed",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed image: %w", err)
		}

		allEmbeddings = append(allEmbeddings, chunkResult.Embeddings...)
		totalPrompt += chunkResult.PromptTokens
		totalTokens += chunkResult.TotalTokens
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   allEmbeddings,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}

func (p *InstrumentedEmbedder) embedImagesInner(
	ctx context.Context, images [][]byte,
) (domain.BatchEmbeddingResult, error) {
	if be, ok := p.innerImage.(domain.BatchImageEmbedder); ok {
		res, err := be.BatchEmbedImage(ctx, images)
		if err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("inner batch embed: %w", err)
		}
		return res, nil
	}
	res, err := domain.BatchImageFallback(ctx, p.innerImage, images)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("inner batch fallback: %w", err)
	}
	return res, nil
}

func (p *InstrumentedEmbedder) checkBudget(ctx context.Context, kind string) error {
	if p.budget == nil {
		return nil
	}
	if err := p.budget.Check(ctx); err != nil {
		p.logger.Error("Budget exceeded",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.String("kind", kind),
			zap.Error(err),
		)
		return fmt.Errorf("budget check: %w", err)
	}
	return nil
}

func (p *InstrumentedEmbedder) recordBudget(totalTokens int) {
	if p.budget != nil && totalTokens > 0 {
		p.budget.Record(int64(totalTokens))
		remaining := metrics.EmbeddingBudgetTokensRemaining
		remaining.WithLabelValues(p.provider, "daily").Set(float64(p.budget.RemainingDaily()))
		remaining.WithLabelValues(p.provider, "monthly").Set(float64(p.budget.RemainingMonthly()))
	}
}
