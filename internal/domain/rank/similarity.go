// Package rank holds the pure scoring functions: cosine similarity over the
// catalog matrix and the dimension-mismatch penalty. No side effects, no
// randomness: identical inputs always produce identical output.
package rank

import "math"

// DefaultEpsilon guards the norm denominator against degenerate all-zero
// vectors. Carried over from the original tuning; tunable, not load-bearing.
const DefaultEpsilon = 1e-8

// CosineScores ranks rows against the query vector. Query and rows are
// L2-normalized with eps added to the denominator, then scored by dot
// product, yielding values in approximately [-1, 1]. Rows of mismatched
// length score against the overlapping prefix; the catalog invariant makes
// that case unreachable in practice.
func CosineScores(query []float32, rows [][]float32, eps float64) []float64 {
	qNorm := l2norm(query) + eps

	scores := make([]float64, len(rows))
	for i, row := range rows {
		rNorm := l2norm(row) + eps

		n := len(query)
		if len(row) < n {
			n = len(row)
		}
		var dot float64
		for j := 0; j < n; j++ {
			dot += float64(query[j]) * float64(row[j])
		}

		scores[i] = dot / (qNorm * rNorm)
	}
	return scores
}

// Blend combines text and image vectors as alpha*text + (1-alpha)*image.
// The result is deliberately not renormalized: normalization happens inside
// CosineScores, and cosine similarity is invariant to uniform scaling.
func Blend(text, image []float32, alpha float64) []float32 {
	n := len(text)
	if len(image) < n {
		n = len(image)
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = float32(alpha*float64(text[i]) + (1-alpha)*float64(image[i]))
	}
	return out
}

func l2norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
