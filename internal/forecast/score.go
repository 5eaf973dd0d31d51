package forecast

import "math"

// DirectionalScale sets the sensitivity of DirectionalScore: a ±4% change maps to about 0.27/0.73
const DirectionalScale = 4.0

// DirectionalScore squashes a forecast percentage change into (0, 1) with a logistic curve.
// DirectionalScore(0) == 0.5 and the function is strictly increasing.
func DirectionalScore(pctChange float64) float64 {
	return 1 / (1 + math.Exp(-pctChange/DirectionalScale))
}
