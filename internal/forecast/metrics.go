package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"stock-insight/internal/types"
)

// Accuracy computes in-sample MAE, RMSE and MAPE over the points that carry an
// actual close. MAPE skips zero actuals. Each metric is 0 when there is nothing to compare.
func Accuracy(series []types.ForecastPoint) types.AccuracyMetrics {
	var absErr, sqErr, pctErr []float64
	for _, p := range series {
		if p.Actual == nil {
			continue
		}
		diff := *p.Actual - p.Predicted
		absErr = append(absErr, math.Abs(diff))
		sqErr = append(sqErr, diff*diff)
		if *p.Actual != 0 {
			pctErr = append(pctErr, math.Abs(diff / *p.Actual))
		}
	}

	var m types.AccuracyMetrics
	if len(absErr) > 0 {
		m.MAE = stat.Mean(absErr, nil)
		m.RMSE = math.Sqrt(stat.Mean(sqErr, nil))
	}
	if len(pctErr) > 0 {
		m.MAPE = stat.Mean(pctErr, nil) * 100
	}
	return m
}
