package rank

import "math"

// DefaultPenaltyWeight caps the dimension penalty's influence so a strong
// semantic match can still outrank a size mismatch. A soft constraint, not a
// hard filter: dimension estimates are noisy. Tunable default, not tuned.
const DefaultPenaltyWeight = 0.4

// DimensionPenalty returns the averaged relative deviation between an item's
// parsed dimensions and the target, in [0, +inf). The caller subtracts
// weight*penalty from the similarity score. Absence of data never reaches
// this function: callers skip the penalty when either side has no dimensions.
func DimensionPenalty(itemWidth, itemLength, targetWidth, targetLength float64) float64 {
	diffW := math.Abs(itemWidth-targetWidth) / math.Max(targetWidth, 1)
	diffL := math.Abs(itemLength-targetLength) / math.Max(targetLength, 1)
	return (diffW + diffL) / 2
}
