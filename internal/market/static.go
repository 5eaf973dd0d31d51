package market

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"stock-insight/internal/errs"
	"stock-insight/internal/interfaces"
	"stock-insight/internal/types"
)

// Static serves fixed series registered per ticker and, for any other ticker,
// a deterministic synthetic walk over weekdays. It is used offline and in tests.
type Static struct {
	seed      uint64
	synthetic bool

	mu     sync.RWMutex
	series map[string][]types.PricePoint
}

var _ interfaces.PriceHistoryProvider = (*Static)(nil)

type StaticOption func(*Static)

// WithSeries registers a fixed series for ticker. Points are copied and sorted by date.
func WithSeries(ticker string, points []types.PricePoint) StaticOption {
	return func(s *Static) { s.Set(ticker, points) }
}

// WithoutSynthetic makes unregistered tickers return ErrNoData
func WithoutSynthetic() StaticOption {
	return func(s *Static) { s.synthetic = false }
}

func NewStatic(seed int64, opts ...StaticOption) *Static {
	s := &Static{
		seed:      uint64(seed),
		synthetic: true,
		series:    make(map[string][]types.PricePoint),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set replaces the fixed series for ticker
func (s *Static) Set(ticker string, points []types.PricePoint) {
	cp := make([]types.PricePoint, len(points))
	copy(cp, points)
	for i := range cp {
		cp[i].Date = day(cp[i].Date)
	}
	sort.Slice(cp, func(i, j int) bool { return cp[i].Date.Before(cp[j].Date) })

	s.mu.Lock()
	s.series[strings.ToUpper(ticker)] = cp
	s.mu.Unlock()
}

func (s *Static) GetHistory(ctx context.Context, ticker string, start, end time.Time) ([]types.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start, end = day(start), day(end)

	s.mu.RLock()
	fixed, ok := s.series[strings.ToUpper(ticker)]
	s.mu.RUnlock()

	var out []types.PricePoint
	switch {
	case ok:
		for _, p := range fixed {
			if !p.Date.Before(start) && !p.Date.After(end) {
				out = append(out, p)
			}
		}
	case s.synthetic:
		out = s.walk(ticker, start, end)
	}
	if len(out) == 0 {
		return nil, errs.NoData("static.GetHistory", "no closes for %s in range", ticker)
	}
	return out, nil
}

func (s *Static) GetLatestClose(ctx context.Context, ticker string) (float64, error) {
	end := time.Now().UTC()
	points, err := s.GetHistory(ctx, ticker, end.AddDate(0, 0, -10), end)
	if err != nil {
		return 0, err
	}
	return points[len(points)-1].Close, nil
}

// walkAnchor is the first date of every synthetic walk, so the close on a
// given date does not depend on the requested window
var walkAnchor = time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

// walk generates a trending series with mean-reverting log noise
func (s *Static) walk(ticker string, start, end time.Time) []types.PricePoint {
	h := fnv.New64a()
	h.Write([]byte(strings.ToUpper(ticker)))
	rng := rand.New(rand.NewPCG(s.seed, h.Sum64()))

	base := 20 + rng.Float64()*480
	annualDrift := -0.05 + rng.Float64()*0.2
	vol := 0.01 + rng.Float64()*0.01

	var out []types.PricePoint
	var noise float64
	for d := walkAnchor; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		noise = 0.98*noise + vol*rng.NormFloat64()
		if d.Before(start) {
			continue
		}
		years := d.Sub(walkAnchor).Hours() / (24 * 365.25)
		price := base * math.Exp(annualDrift*years+noise)
		out = append(out, types.PricePoint{Date: d, Close: math.Round(price*100) / 100})
	}
	return out
}

func day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
