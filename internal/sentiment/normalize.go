package sentiment

import "stock-insight/internal/errs"

// Normalize rescales score from [oldMin, oldMax] onto [newMin, newMax].
// The rescale is affine and does not clamp.
func Normalize(score, oldMin, oldMax, newMin, newMax float64) (float64, error) {
	if oldMax == oldMin {
		return 0, errs.Domain("sentiment.Normalize", "degenerate source range [%g, %g]", oldMin, oldMax)
	}
	return newMin + (score-oldMin)/(oldMax-oldMin)*(newMax-newMin), nil
}

// ToUnit maps a polarity in [-1, 1] onto [0, 1]
func ToUnit(polarity float64) float64 {
	v, _ := Normalize(polarity, -1, 1, 0, 1)
	return v
}
