// Package query holds the per-request query value object. Queries are
// constructed per request, never persisted, and discarded after producing
// results.
package query

import (
	"fmt"
	"strings"

	"github.com/casai-labs/furnish/internal/domain"
)

// DefaultAlpha is the text weight used when both text and image are present
// and the caller did not choose one.
const DefaultAlpha = 0.5

// Dimensions is a physical-size target in catalog units (cm).
type Dimensions struct {
	Width  float64
	Length float64
}

// Query is one user request: free text and/or an already-cropped item image.
type Query struct {
	text         string
	image        []byte
	alpha        float64
	categoryHint string
	target       Dimensions
	hasTarget    bool
	topK         int
}

// Option customizes a Query.
type Option func(*Query)

// WithAlpha sets the text/image blend weight, used only when both are present.
func WithAlpha(alpha float64) Option {
	return func(q *Query) { q.alpha = alpha }
}

// WithCategoryHint narrows ranking to a furniture category before scoring.
func WithCategoryHint(hint string) Option {
	return func(q *Query) { q.categoryHint = hint }
}

// WithTargetDimensions enables the dimension-mismatch penalty.
func WithTargetDimensions(width, length float64) Option {
	return func(q *Query) {
		q.target = Dimensions{Width: width, Length: length}
		q.hasTarget = true
	}
}

// WithTopK sets the number of results to return. 0 means "use the service
// default".
func WithTopK(topK int) Option {
	return func(q *Query) { q.topK = topK }
}

// New creates a query. At least one of text or image must be present.
func New(text string, image []byte, opts ...Option) (Query, error) {
	q := Query{
		text:  strings.TrimSpace(text),
		image: image,
		alpha: DefaultAlpha,
	}
	for _, o := range opts {
		o(&q)
	}

	if q.text == "" && len(q.image) == 0 {
		return Query{}, fmt.Errorf("%w: neither text nor image supplied", domain.ErrInvalidQuery)
	}
	if q.alpha < 0 || q.alpha > 1 {
		return Query{}, fmt.Errorf("%w: alpha %g outside [0,1]", domain.ErrInvalidQuery, q.alpha)
	}
	if q.topK < 0 {
		return Query{}, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidQuery, q.topK)
	}
	if q.hasTarget && (q.target.Width < 0 || q.target.Length < 0) {
		return Query{}, fmt.Errorf("%w: negative target dimensions", domain.ErrInvalidQuery)
	}

	return q, nil
}

// Text returns the trimmed query text, empty for image-only queries.
func (q *Query) Text() string { return q.text }

// Image returns the raw encoded query image, nil for text-only queries.
func (q *Query) Image() []byte { return q.image }

// Alpha returns the text weight of the affine blend.
func (q *Query) Alpha() float64 { return q.alpha }

// CategoryHint returns the requested category label, empty when unfiltered.
func (q *Query) CategoryHint() string { return q.categoryHint }

// TargetDimensions returns the size target; ok is false when none was given.
func (q *Query) TargetDimensions() (Dimensions, bool) { return q.target, q.hasTarget }

// TopK returns the requested result count, 0 when the caller left it to the
// service default.
func (q *Query) TopK() int { return q.topK }
