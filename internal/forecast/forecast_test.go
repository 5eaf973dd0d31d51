package forecast

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-insight/internal/errs"
	"stock-insight/internal/types"
)

var day0 = time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)

func series(n int, f func(i int) float64) []types.PricePoint {
	out := make([]types.PricePoint, n)
	for i := range out {
		out[i] = types.PricePoint{Date: day0.AddDate(0, 0, i), Close: f(i)}
	}
	return out
}

type fakePrices struct {
	points []types.PricePoint
	err    error
	start  time.Time
	end    time.Time
}

func (f *fakePrices) GetHistory(_ context.Context, _ string, start, end time.Time) ([]types.PricePoint, error) {
	f.start, f.end = start, end
	return f.points, f.err
}

func (f *fakePrices) GetLatestClose(context.Context, string) (float64, error) {
	if len(f.points) == 0 {
		return 0, errs.NoData("fake", "empty")
	}
	return f.points[len(f.points)-1].Close, nil
}

func TestDirectionalScore(t *testing.T) {
	assert.Equal(t, 0.5, DirectionalScore(0))
	assert.InDelta(t, 0.7311, DirectionalScore(4), 1e-4)
	assert.InDelta(t, 0.2689, DirectionalScore(-4), 1e-4)

	prev := DirectionalScore(-100)
	for pct := -99.0; pct <= 100; pct += 0.5 {
		cur := DirectionalScore(pct)
		assert.Greater(t, cur, prev)
		assert.Greater(t, cur, 0.0)
		assert.Less(t, cur, 1.0)
		prev = cur
	}
}

func TestAccuracy(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	pts := []types.ForecastPoint{
		{Actual: f(10), Predicted: 12},
		{Actual: f(20), Predicted: 18},
		{Actual: f(0), Predicted: 1},
		{Predicted: 100},
	}

	m := Accuracy(pts)
	assert.InDelta(t, 5.0/3, m.MAE, 1e-12)
	assert.InDelta(t, math.Sqrt(9.0/3), m.RMSE, 1e-12)
	// zero actual is left out of MAPE
	assert.InDelta(t, 15.0, m.MAPE, 1e-12)
}

func TestAccuracyWithoutActuals(t *testing.T) {
	assert.Equal(t, types.AccuracyMetrics{}, Accuracy(nil))
	assert.Equal(t, types.AccuracyMetrics{}, Accuracy([]types.ForecastPoint{{Predicted: 3}}))
}

func TestFitRejectsEmptyHistory(t *testing.T) {
	_, err := Fit(nil, DefaultParams())
	assert.True(t, errors.Is(err, errs.ErrNoData))
}

func TestBandContainsPrediction(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	history := series(600, func(i int) float64 {
		return 100 + 0.05*float64(i) + 5*math.Sin(2*math.Pi*float64(i)/365.25) + rng.NormFloat64()
	})

	model, err := Fit(history, DefaultParams())
	require.NoError(t, err)
	pts := BuildSeries(model, history, 90)
	require.Len(t, pts, 690)

	for _, p := range pts {
		assert.LessOrEqual(t, p.Lower, p.Predicted)
		assert.LessOrEqual(t, p.Predicted, p.Upper)
	}
	// uncertainty grows past the last close
	first := pts[600].Upper - pts[600].Lower
	last := pts[689].Upper - pts[689].Lower
	assert.Greater(t, last, first)
	assert.Greater(t, model.ResidualStdDev(), 0.0)
}

func TestFitExtrapolatesTrend(t *testing.T) {
	history := series(500, func(i int) float64 { return 100 + 0.1*float64(i) })

	model, err := Fit(history, DefaultParams())
	require.NoError(t, err)
	res := Summarize("LIN", BuildSeries(model, history, 30))

	assert.Equal(t, 149.9, res.LastPrice)
	assert.InEpsilon(t, 152.9, res.PredictedPrice, 0.01)
	assert.Greater(t, res.PctChange, 0.0)
	assert.Greater(t, res.DirectionalScore, 0.5)
	assert.Less(t, res.Metrics.MAPE, 1.0)
}

func TestFlatSeriesIsNeutral(t *testing.T) {
	history := series(400, func(int) float64 { return 42.5 })

	model, err := Fit(history, DefaultParams())
	require.NoError(t, err)
	res := Summarize("FLAT", BuildSeries(model, history, 90))

	assert.Equal(t, 0.0, res.PctChange)
	assert.Equal(t, 0.5, res.DirectionalScore)
	assert.Equal(t, 42.5, res.LastPrice)
	assert.Equal(t, 42.5, res.PredictedPrice)
	assert.Equal(t, 0.0, res.Metrics.MAE)
}

func TestDailySeasonalityDroppedForDailyCloses(t *testing.T) {
	history := series(300, func(i int) float64 { return 50 + float64(i%7) })

	model, err := Fit(history, DefaultParams())
	require.NoError(t, err)

	names := model.Components()
	assert.False(t, slices.Contains(names, "daily_sin_1"))
	assert.False(t, slices.Contains(names, "daily_cos_1"))
	assert.True(t, slices.Contains(names, "weekly_sin_1"))
	assert.True(t, slices.Contains(names, "intercept"))
}

func TestSinglePointHistory(t *testing.T) {
	history := series(1, func(int) float64 { return 10 })

	model, err := Fit(history, DefaultParams())
	require.NoError(t, err)
	res := Summarize("ONE", BuildSeries(model, history, 5))

	assert.Len(t, res.Series, 6)
	assert.Equal(t, 0.0, res.PctChange)
}

func TestSummarizeZeroLastPrice(t *testing.T) {
	zero := 0.0
	res := Summarize("Z", []types.ForecastPoint{
		{Actual: &zero, Predicted: 1, Lower: 0, Upper: 2},
		{Predicted: 3, Lower: 2, Upper: 4},
	})
	assert.Equal(t, 0.0, res.PctChange)
	assert.Equal(t, 0.5, res.DirectionalScore)
	assert.Equal(t, 3.0, res.PredictedPrice)
}

func TestEngineForecast(t *testing.T) {
	prices := &fakePrices{points: series(365, func(i int) float64 { return 200 - 0.05*float64(i) })}
	now := day0.AddDate(1, 0, 0)
	engine := NewEngine(prices, DefaultParams(), WithClock(func() time.Time { return now }), WithLookbackYears(2))

	res, err := engine.Forecast(context.Background(), "DOWN", 45)
	require.NoError(t, err)

	assert.Equal(t, now.AddDate(-2, 0, 0), prices.start)
	assert.Equal(t, now, prices.end)
	assert.Equal(t, "DOWN", res.Ticker)
	require.Len(t, res.Series, 365+45)
	assert.NotNil(t, res.Series[364].Actual)
	assert.Nil(t, res.Series[365].Actual)
	assert.Equal(t, day0.AddDate(0, 0, 364+45), res.Series[len(res.Series)-1].Date)
	assert.Less(t, res.PctChange, 0.0)
	assert.Less(t, res.DirectionalScore, 0.5)
}

func TestEngineErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewEngine(&fakePrices{}, DefaultParams()).Forecast(ctx, "NONE", 90)
	assert.True(t, errors.Is(err, errs.ErrNoData))

	nan := &fakePrices{points: series(3, func(int) float64 { return math.NaN() })}
	_, err = NewEngine(nan, DefaultParams()).Forecast(ctx, "NAN", 90)
	assert.True(t, errors.Is(err, errs.ErrNoData))

	down := &fakePrices{err: errors.New("dial tcp: timeout")}
	_, err = NewEngine(down, DefaultParams()).Forecast(ctx, "X", 90)
	assert.True(t, errors.Is(err, errs.ErrUpstream))

	_, err = NewEngine(&fakePrices{}, DefaultParams()).Forecast(ctx, "X", 0)
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
}

func TestEngineHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	prices := &fakePrices{points: series(30, func(i int) float64 { return float64(i) + 1 })}
	_, err := NewEngine(prices, DefaultParams()).Forecast(ctx, "X", 5)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = NewEngine(&fakePrices{err: ctx.Err()}, DefaultParams()).Forecast(ctx, "X", 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, errs.ErrUpstream))
}
