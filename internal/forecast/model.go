package forecast

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"stock-insight/internal/errs"
	"stock-insight/internal/types"
)

// Seasonal periods in days
const (
	yearDays = 365.25
	weekDays = 7.0
	dayDays  = 1.0
)

const (
	// columns whose variance falls below this carry no information on the fit dates
	degenerateVariance = 1e-12
	// keeps the normal equations positive definite when the intercept is unpenalized
	jitter = 1e-9
)

// Params controls the additive model
type Params struct {
	Changepoints     int
	ChangepointRange float64 // share of history eligible for changepoints
	YearlyOrder      int
	WeeklyOrder      int
	DailyOrder       int
	ChangepointPrior float64 // prior scale on trend rate changes
	SeasonalityPrior float64 // prior scale on Fourier coefficients
	NoiseScale       float64 // assumed noise scale of the scaled series
	IntervalWidth    float64 // coverage of the uncertainty band
}

// DefaultParams mirrors the usual daily-series configuration
func DefaultParams() Params {
	return Params{
		Changepoints:     25,
		ChangepointRange: 0.8,
		YearlyOrder:      10,
		WeeklyOrder:      3,
		DailyOrder:       4,
		ChangepointPrior: 0.05,
		SeasonalityPrior: 10,
		NoiseScale:       0.1,
		IntervalWidth:    0.8,
	}
}

type columnKind int

const (
	colIntercept columnKind = iota
	colTrend
	colChangepoint
	colFourier
)

// column describes one regressor of the design matrix
type column struct {
	kind   columnKind
	cp     float64 // changepoint location in scaled time
	period float64 // seasonal period in days
	order  int
	sin    bool
	name   string
}

// Model is a fitted piecewise-linear trend plus Fourier seasonality.
// It is immutable after Fit and safe for concurrent Predict calls.
type Model struct {
	params  Params
	start   time.Time
	span    time.Duration
	yOffset float64
	yScale  float64
	columns []column
	beta    []float64
	sigma   float64 // residual standard deviation in price units
	z       float64 // half-width multiplier of the band
}

// Fit estimates the model on history, which must be ordered by date ascending
func Fit(history []types.PricePoint, p Params) (*Model, error) {
	if len(history) == 0 {
		return nil, errs.NoData("forecast.Fit", "empty history")
	}
	if p.IntervalWidth <= 0 || p.IntervalWidth >= 1 {
		return nil, errs.Domain("forecast.Fit", "interval width %g outside (0,1)", p.IntervalWidth)
	}

	m := &Model{
		params: p,
		start:  history[0].Date,
		span:   history[len(history)-1].Date.Sub(history[0].Date),
	}
	if m.span <= 0 {
		m.span = 24 * time.Hour
	}

	// Closes are centred on their mean and scaled by the largest deviation, so a
	// flat series fits to exactly zero coefficients
	dates := make([]time.Time, len(history))
	y := make([]float64, len(history))
	for i, pt := range history {
		dates[i] = pt.Date
		y[i] = pt.Close
	}
	m.yOffset = stat.Mean(y, nil)
	for _, v := range y {
		m.yScale = math.Max(m.yScale, math.Abs(v-m.yOffset))
	}
	if m.yScale <= 1e-12*math.Max(1, math.Abs(m.yOffset)) {
		m.yScale = 1
	}
	for i := range y {
		y[i] = (y[i] - m.yOffset) / m.yScale
	}

	candidates := m.candidateColumns(dates)
	m.columns = dropDegenerate(candidates, m, dates)

	X := m.design(dates)
	beta, err := m.solve(X, y)
	if err != nil {
		return nil, err
	}
	m.beta = beta

	var fitted mat.VecDense
	fitted.MulVec(X, mat.NewVecDense(len(beta), beta))
	var sse float64
	for i := range y {
		r := y[i] - fitted.AtVec(i)
		sse += r * r
	}
	m.sigma = math.Sqrt(sse/float64(len(y))) * m.yScale
	m.z = distuv.UnitNormal.Quantile(0.5 + p.IntervalWidth/2)

	return m, nil
}

// scaledTime maps d onto [0,1] across the fit window; future dates exceed 1
func (m *Model) scaledTime(d time.Time) float64 {
	return float64(d.Sub(m.start)) / float64(m.span)
}

func epochDays(d time.Time) float64 {
	return float64(d.Unix()) / 86400
}

func (m *Model) candidateColumns(dates []time.Time) []column {
	cols := []column{
		{kind: colIntercept, name: "intercept"},
		{kind: colTrend, name: "trend"},
	}

	// Changepoints sit on observed dates spread evenly over the leading share of history
	histSize := int(math.Floor(float64(len(dates)) * m.params.ChangepointRange))
	n := min(m.params.Changepoints, histSize-1)
	for j := 1; j <= n; j++ {
		idx := int(math.Round(float64(j) * float64(histSize-1) / float64(n)))
		cols = append(cols, column{
			kind: colChangepoint,
			cp:   m.scaledTime(dates[idx]),
			name: fmt.Sprintf("changepoint_%d", j),
		})
	}

	for _, s := range []struct {
		name   string
		period float64
		order  int
	}{
		{"yearly", yearDays, m.params.YearlyOrder},
		{"weekly", weekDays, m.params.WeeklyOrder},
		{"daily", dayDays, m.params.DailyOrder},
	} {
		for k := 1; k <= s.order; k++ {
			cols = append(cols,
				column{kind: colFourier, period: s.period, order: k, sin: true, name: fmt.Sprintf("%s_sin_%d", s.name, k)},
				column{kind: colFourier, period: s.period, order: k, sin: false, name: fmt.Sprintf("%s_cos_%d", s.name, k)},
			)
		}
	}
	return cols
}

func (m *Model) value(c column, d time.Time) float64 {
	switch c.kind {
	case colIntercept:
		return 1
	case colTrend:
		return m.scaledTime(d)
	case colChangepoint:
		return math.Max(0, m.scaledTime(d)-c.cp)
	default:
		x := 2 * math.Pi * float64(c.order) * epochDays(d) / c.period
		if c.sin {
			return math.Sin(x)
		}
		return math.Cos(x)
	}
}

// dropDegenerate removes regressors that are constant on the fit dates, such as
// daily seasonality on closes stamped at the same time every day
func dropDegenerate(cols []column, m *Model, dates []time.Time) []column {
	kept := []column{cols[0]}
	values := make([]float64, len(dates))
	for _, c := range cols[1:] {
		for i, d := range dates {
			values[i] = m.value(c, d)
		}
		if len(dates) > 1 && stat.Variance(values, nil) > degenerateVariance {
			kept = append(kept, c)
		}
	}
	return kept
}

func (m *Model) design(dates []time.Time) *mat.Dense {
	X := mat.NewDense(len(dates), len(m.columns), nil)
	for i, d := range dates {
		for j, c := range m.columns {
			X.Set(i, j, m.value(c, d))
		}
	}
	return X
}

// penalty is the ridge weight of a column: noise variance over prior variance
func (m *Model) penalty(c column) float64 {
	noise := m.params.NoiseScale * m.params.NoiseScale
	switch c.kind {
	case colIntercept:
		return jitter
	case colTrend:
		return noise / 25
	case colChangepoint:
		return noise / (m.params.ChangepointPrior * m.params.ChangepointPrior)
	default:
		return noise / (m.params.SeasonalityPrior * m.params.SeasonalityPrior)
	}
}

// solve returns the ridge estimate (XᵀX + Λ)⁻¹ Xᵀy
func (m *Model) solve(X *mat.Dense, y []float64) ([]float64, error) {
	_, p := X.Dims()

	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	a := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			a.SetSym(i, j, xtx.At(i, j))
		}
		a.SetSym(i, i, a.At(i, i)+m.penalty(m.columns[i])+jitter)
	}

	var xty mat.VecDense
	xty.MulVec(X.T(), mat.NewVecDense(len(y), y))

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return nil, errs.Domain("forecast.Fit", "normal equations are not positive definite")
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return nil, errs.Domain("forecast.Fit", "solve normal equations: %v", err)
	}
	return beta.RawVector().Data, nil
}

// Predict returns the fitted value and band at each date. The band widens
// with the square root of the distance past the end of the fit window.
func (m *Model) Predict(dates []time.Time) []types.ForecastPoint {
	out := make([]types.ForecastPoint, len(dates))
	for i, d := range dates {
		var yhat float64
		for j, c := range m.columns {
			yhat += m.beta[j] * m.value(c, d)
		}
		yhat = yhat*m.yScale + m.yOffset

		w := m.z * m.sigma * math.Sqrt(1+math.Max(0, m.scaledTime(d)-1))
		out[i] = types.ForecastPoint{
			Date:      d,
			Predicted: yhat,
			Lower:     yhat - w,
			Upper:     yhat + w,
		}
	}
	return out
}

// Components lists the regressors kept by Fit
func (m *Model) Components() []string {
	names := make([]string, len(m.columns))
	for i, c := range m.columns {
		names[i] = c.name
	}
	return names
}

// ResidualStdDev is the in-sample residual standard deviation in price units
func (m *Model) ResidualStdDev() float64 {
	return m.sigma
}
