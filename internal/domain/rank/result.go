package rank

import "github.com/casai-labs/furnish/internal/domain/catalog"

// Result is one ranked catalog item. Constructed fresh per request;
// ordering is the contract, not identity.
type Result struct {
	item       catalog.Item
	similarity float64
	finalScore float64
}

// NewResult creates a ranked result.
func NewResult(item catalog.Item, similarity, finalScore float64) Result {
	return Result{item: item, similarity: similarity, finalScore: finalScore}
}

// Item returns the catalog item.
func (r *Result) Item() catalog.Item { return r.item }

// Similarity returns the raw cosine similarity.
func (r *Result) Similarity() float64 { return r.similarity }

// FinalScore returns the similarity after the dimension penalty.
func (r *Result) FinalScore() float64 { return r.finalScore }
