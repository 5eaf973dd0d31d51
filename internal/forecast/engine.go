package forecast

import (
	"context"
	"math"
	"time"

	"stock-insight/internal/errs"
	"stock-insight/internal/interfaces"
	"stock-insight/internal/logger"
	"stock-insight/internal/round"
	"stock-insight/internal/store"
	"stock-insight/internal/types"
)

// DefaultLookbackYears is the history window fetched for each fit
const DefaultLookbackYears = 5

// Engine fits a model to a ticker's recent closes and extends it past the last close
type Engine struct {
	prices        interfaces.PriceHistoryProvider
	params        Params
	lookbackYears int
	now           func() time.Time
}

var _ interfaces.Forecaster = (*Engine)(nil)

type Option func(*Engine)

// WithClock fixes the reference time used to place the history window
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLookbackYears overrides DefaultLookbackYears
func WithLookbackYears(years int) Option {
	return func(e *Engine) {
		if years > 0 {
			e.lookbackYears = years
		}
	}
}

func NewEngine(prices interfaces.PriceHistoryProvider, params Params, opts ...Option) *Engine {
	e := &Engine{
		prices:        prices,
		params:        params,
		lookbackYears: DefaultLookbackYears,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ParamsFromConfig maps the forecast config section onto model parameters
func ParamsFromConfig(c store.ForecastConfig) Params {
	return Params{
		Changepoints:     c.Changepoints,
		ChangepointRange: c.ChangepointRange,
		YearlyOrder:      c.YearlyOrder,
		WeeklyOrder:      c.WeeklyOrder,
		DailyOrder:       c.DailyOrder,
		ChangepointPrior: c.ChangepointPrior,
		SeasonalityPrior: c.SeasonalityPrior,
		NoiseScale:       c.NoiseScale,
		IntervalWidth:    c.IntervalWidth,
	}
}

// Forecast fetches the lookback window, fits the model and predicts horizonDays
// calendar days past the last close. The fit is CPU bound; callers that must
// stay responsive run it on its own goroutine.
func (e *Engine) Forecast(ctx context.Context, ticker string, horizonDays int) (*types.ForecastResult, error) {
	if horizonDays < 1 {
		return nil, errs.InvalidInput("forecast.Forecast", "horizon must be positive, got %d", horizonDays)
	}

	end := e.now().UTC()
	start := end.AddDate(-e.lookbackYears, 0, 0)
	raw, err := e.prices.GetHistory(ctx, ticker, start, end)
	if err != nil {
		return nil, errs.Upstream("prices.GetHistory", err)
	}

	history := finite(raw)
	if len(history) == 0 {
		return nil, errs.NoData("forecast.Forecast", "no price history for %s", ticker)
	}
	logger.Debug(ctx, "Price history fetched", "ticker", ticker, "points", len(history),
		"from", history[0].Date.Format(time.DateOnly), "to", history[len(history)-1].Date.Format(time.DateOnly))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	model, err := Fit(history, e.params)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Debug(ctx, "Model fitted", "ticker", ticker, "components", len(model.Components()),
		"residual_std", model.ResidualStdDev())

	series := BuildSeries(model, history, horizonDays)
	return Summarize(ticker, series), nil
}

// BuildSeries predicts every historical date plus horizonDays calendar days
// after the last one, attaching actual closes to the historical rows
func BuildSeries(model *Model, history []types.PricePoint, horizonDays int) []types.ForecastPoint {
	last := history[len(history)-1].Date
	dates := make([]time.Time, 0, len(history)+horizonDays)
	for _, p := range history {
		dates = append(dates, p.Date)
	}
	for i := 1; i <= horizonDays; i++ {
		dates = append(dates, last.AddDate(0, 0, i))
	}

	series := model.Predict(dates)
	for i := range history {
		actual := history[i].Close
		series[i].Actual = &actual
	}
	return series
}

// Summarize derives prices, change, directional score and accuracy from a series
func Summarize(ticker string, series []types.ForecastPoint) *types.ForecastResult {
	var lastPrice, predicted float64
	for i := len(series) - 1; i >= 0; i-- {
		if series[i].Actual != nil {
			lastPrice = *series[i].Actual
			break
		}
	}
	if len(series) > 0 {
		predicted = series[len(series)-1].Predicted
	}

	var pct float64
	if lastPrice != 0 {
		pct = (predicted - lastPrice) / lastPrice * 100
	}

	m := Accuracy(series)
	return &types.ForecastResult{
		Ticker:           ticker,
		LastPrice:        round.To(lastPrice, round.PricePlaces),
		PredictedPrice:   round.To(predicted, round.PricePlaces),
		PctChange:        round.To(pct, round.PctPlaces),
		DirectionalScore: round.To(DirectionalScore(pct), round.DirectionPlaces),
		Metrics: types.AccuracyMetrics{
			MAE:  round.To(m.MAE, round.MetricPlaces),
			RMSE: round.To(m.RMSE, round.MetricPlaces),
			MAPE: round.To(m.MAPE, round.MetricPlaces),
		},
		Series: series,
	}
}

// finite drops points whose close is not a finite number
func finite(points []types.PricePoint) []types.PricePoint {
	out := make([]types.PricePoint, 0, len(points))
	for _, p := range points {
		if !math.IsNaN(p.Close) && !math.IsInf(p.Close, 0) {
			out = append(out, p)
		}
	}
	return out
}
