package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"
	"github.com/zerodha/gokiteconnect/v4/models"

	"stock-insight/internal/errs"
)

type fakeKite struct {
	instrumentCalls int
	historyCalls    [][2]time.Time
	err             error
}

func (f *fakeKite) GetInstrumentsByExchange(exchange string) (kiteconnect.Instruments, error) {
	f.instrumentCalls++
	if f.err != nil {
		return nil, f.err
	}
	return kiteconnect.Instruments{
		{InstrumentToken: 738561, Tradingsymbol: "RELIANCE", Exchange: exchange},
		{InstrumentToken: 2953217, Tradingsymbol: "TCS", Exchange: exchange},
	}, nil
}

func (f *fakeKite) GetHistoricalData(token int, interval string, from, to time.Time, continuous, oi bool) ([]kiteconnect.HistoricalData, error) {
	f.historyCalls = append(f.historyCalls, [2]time.Time{from, to})
	ist := time.FixedZone("IST", 19800)
	var out []kiteconnect.HistoricalData
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		ts := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, ist)
		out = append(out, kiteconnect.HistoricalData{Date: models.Time{Time: ts}, Close: float64(token%1000) + float64(d.Day())})
	}
	return out, nil
}

func (f *fakeKite) GetLTP(instruments ...string) (kiteconnect.QuoteLTP, error) {
	return kiteconnect.QuoteLTP{"NSE:RELIANCE": {InstrumentToken: 738561, LastPrice: 2890.5}}, nil
}

func TestKiteGetHistory(t *testing.T) {
	f := &fakeKite{}
	k := newKite(f, "NSE")
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points, err := k.GetHistory(ctx, "reliance.ns", start, start.AddDate(0, 0, 13))
	require.NoError(t, err)
	require.Len(t, points, 10)
	assert.Equal(t, start, points[0].Date)
	for i := 1; i < len(points); i++ {
		assert.True(t, points[i-1].Date.Before(points[i].Date))
	}

	_, err = k.GetHistory(ctx, "NSE:TCS", start, start.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, 1, f.instrumentCalls, "instrument dump is loaded once per exchange")
}

func TestKiteSplitsLongRanges(t *testing.T) {
	f := &fakeKite{}
	k := newKite(f, "NSE")

	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := k.GetHistory(context.Background(), "RELIANCE", start, start.AddDate(0, 0, 4500))
	require.NoError(t, err)
	require.Len(t, f.historyCalls, 3)
	for _, c := range f.historyCalls {
		assert.LessOrEqual(t, c[1].Sub(c[0]), time.Duration(kiteMaxDaysPerRequest-1)*24*time.Hour)
	}
}

func TestKiteErrors(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := newKite(&fakeKite{}, "NSE").GetHistory(ctx, "NOPE", start, start.AddDate(0, 0, 5))
	assert.True(t, errors.Is(err, errs.ErrNoData))

	_, err = newKite(&fakeKite{err: errors.New("token expired")}, "NSE").GetHistory(ctx, "TCS", start, start.AddDate(0, 0, 5))
	assert.True(t, errors.Is(err, errs.ErrUpstream))

	// a weekend-only window has no closes
	sat := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	_, err = newKite(&fakeKite{}, "NSE").GetHistory(ctx, "TCS", sat, sat.AddDate(0, 0, 1))
	assert.True(t, errors.Is(err, errs.ErrNoData))
}

func TestKiteGetLatestClose(t *testing.T) {
	k := newKite(&fakeKite{}, "")
	price, err := k.GetLatestClose(context.Background(), "RELIANCE")
	require.NoError(t, err)
	assert.Equal(t, 2890.5, price)

	_, err = k.GetLatestClose(context.Background(), "TCS.BO")
	assert.True(t, errors.Is(err, errs.ErrNoData))
}

func TestSplitKiteSymbol(t *testing.T) {
	tests := []struct{ in, ex, sym string }{
		{"RELIANCE.NS", "NSE", "RELIANCE"},
		{"tcs.bo", "BSE", "TCS"},
		{"BSE:INFY", "BSE", "INFY"},
		{"HDFCBANK", "NSE", "HDFCBANK"},
	}
	for _, tt := range tests {
		ex, sym := splitKiteSymbol(tt.in, "NSE")
		assert.Equal(t, tt.ex, ex, tt.in)
		assert.Equal(t, tt.sym, sym, tt.in)
	}
}
