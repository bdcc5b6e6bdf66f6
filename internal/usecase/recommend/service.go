// Package recommend orchestrates one recommendation request: vectorize the
// query, narrow the candidate set by category, score against the catalog,
// and return the top results.
package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/casai-labs/furnish/internal/domain/catalog"
	"github.com/casai-labs/furnish/internal/domain/query"
	"github.com/casai-labs/furnish/internal/domain/rank"
	"github.com/casai-labs/furnish/internal/domain/style"
	"github.com/casai-labs/furnish/internal/logger"
	"github.com/casai-labs/furnish/internal/metrics"
)

// Options are the scoring parameters, typically sourced from config.
type Options struct {
	DefaultTopK   int
	MaxTopK       int
	PenaltyWeight float64
	Epsilon       float64
	StripWords    []string
}

// Service ranks catalog items against a query.
// The catalog is immutable after startup, so Service is safe for concurrent use.
type Service struct {
	cat      *catalog.Catalog
	embed    Embedder
	imgEmbed ImageEmbedder
	opts     Options
}

// New creates a recommendation service.
func New(cat *catalog.Catalog, embed Embedder, imgEmbed ImageEmbedder, opts Options) *Service {
	return &Service{cat: cat, embed: embed, imgEmbed: imgEmbed, opts: opts}
}

// Recommend scores the catalog against the query and returns the top results,
// best first, plus the category filter tier that produced the candidate set.
// An empty catalog yields an empty result, not an error.
func (s *Service) Recommend(
	ctx context.Context, q query.Query,
) ([]rank.Result, catalog.Match, error) {
	start := time.Now()

	results, match, err := s.recommend(ctx, q)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecommendRequestsTotal.WithLabelValues(status).Inc()
	metrics.RecommendDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, match, err
	}

	logger.FromContext(ctx).Debug("Recommendation served",
		zap.Duration("duration", time.Since(start)),
		zap.String("category_match", string(match)),
		zap.Int("results", len(results)),
	)
	return results, match, nil
}

func (s *Service) recommend(
	ctx context.Context, q query.Query,
) ([]rank.Result, catalog.Match, error) {
	if s.cat.Len() == 0 {
		return []rank.Result{}, catalog.MatchUnfiltered, nil
	}

	vec, err := s.vectorize(ctx, q)
	if err != nil {
		return nil, catalog.MatchUnfiltered, err
	}

	candidates, match := s.cat.FilterCategory(q.CategoryHint(), s.opts.StripWords)
	metrics.CategoryFilterTotal.WithLabelValues(string(match)).Inc()
	if match == catalog.MatchFallback {
		logger.FromContext(ctx).Warn("Category hint matched nothing, scoring full catalog",
			zap.String("category", q.CategoryHint()),
		)
	}

	results := s.score(vec, candidates, q)

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinalScore() > results[j].FinalScore()
	})

	return results[:s.resolveTopK(q.TopK(), len(results))], match, nil
}

// vectorize produces a single query vector: the text embedding, the image
// embedding, or their weighted blend when both modalities are present.
// Style names in the text are expanded to their interior-design descriptions
// before embedding.
func (s *Service) vectorize(ctx context.Context, q query.Query) ([]float32, error) {
	var textVec, imageVec []float32

	if q.Text() != "" {
		res, err := s.embed.Embed(ctx, style.Describe(q.Text()))
		if err != nil {
			return nil, fmt.Errorf("embed query text: %w", err)
		}
		textVec = res.Embedding
	}

	if len(q.Image()) > 0 {
		res, err := s.imgEmbed.EmbedImage(ctx, q.Image())
		if err != nil {
			return nil, fmt.Errorf("embed query image: %w", err)
		}
		imageVec = res.Embedding
	}

	switch {
	case textVec != nil && imageVec != nil:
		return rank.Blend(textVec, imageVec, q.Alpha()), nil
	case textVec != nil:
		return textVec, nil
	default:
		return imageVec, nil
	}
}

// score computes cosine similarity for every candidate and applies the
// dimension-mismatch penalty when the query carries a size target.
func (s *Service) score(vec []float32, candidates []catalog.Item, q query.Query) []rank.Result {
	rows := make([][]float32, len(candidates))
	for i := range candidates {
		rows[i] = candidates[i].Embedding()
	}
	sims := rank.CosineScores(vec, rows, s.opts.Epsilon)

	target, hasTarget := q.TargetDimensions()

	results := make([]rank.Result, len(candidates))
	for i := range candidates {
		final := sims[i]
		if hasTarget {
			if w, l, ok := candidates[i].Dimensions(); ok {
				final -= s.opts.PenaltyWeight * rank.DimensionPenalty(w, l, target.Width, target.Length)
			}
		}
		results[i] = rank.NewResult(candidates[i], sims[i], final)
	}
	return results
}

// resolveTopK applies the service default and caps against MaxTopK and the
// candidate count.
func (s *Service) resolveTopK(requested, available int) int {
	k := requested
	if k == 0 {
		k = s.opts.DefaultTopK
	}
	if s.opts.MaxTopK > 0 && k > s.opts.MaxTopK {
		k = s.opts.MaxTopK
	}
	if k > available {
		k = available
	}
	return k
}
