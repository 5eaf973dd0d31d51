package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-insight/internal/api"
	"stock-insight/internal/errs"
	"stock-insight/internal/types"
)

const chartBody = `{"chart":{"result":[{"meta":{"symbol":"AAPL","regularMarketPrice":191.5},
"timestamp":[1704205800,1704292200,1704378600,1704465000],
"indicators":{"quote":[{"close":[185.64,null,181.91,181.18]}]}}],"error":null}}`

func newYahoo(t *testing.T, h http.HandlerFunc) *Yahoo {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewYahoo(api.NewClient(api.WithBaseURL(srv.URL), api.WithHeaders(api.YahooFinanceHeaders())))
}

func TestYahooGetHistory(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	y := newYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(chartBody))
	})

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	points, err := y.GetHistory(context.Background(), "AAPL", start, end)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/AAPL", gotPath)
	assert.Equal(t, []string{"1d"}, gotQuery["interval"])
	assert.Equal(t, []string{"1704067200"}, gotQuery["period1"])

	// null close dropped, dates at midnight UTC, ascending
	require.Len(t, points, 3)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), points[0].Date)
	assert.Equal(t, 185.64, points[0].Close)
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), points[1].Date)
	assert.Equal(t, 181.18, points[2].Close)
}

func TestYahooGetLatestClose(t *testing.T) {
	y := newYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5d", r.URL.Query().Get("range"))
		_, _ = w.Write([]byte(chartBody))
	})

	last, err := y.GetLatestClose(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 181.18, last)
}

func TestYahooErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"unknown symbol", http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found"}}}`, errs.ErrNoData},
		{"chart error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, errs.ErrNoData},
		{"all nulls", http.StatusOK, `{"chart":{"result":[{"timestamp":[1704205800],"indicators":{"quote":[{"close":[null]}]}}]}}`, errs.ErrNoData},
		{"server error", http.StatusBadGateway, `bad gateway`, errs.ErrUpstream},
		{"garbage", http.StatusOK, `<html>`, errs.ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y := newYahoo(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := y.GetHistory(context.Background(), "ZZZZ", time.Now().AddDate(0, -1, 0), time.Now())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestStaticSyntheticIsDeterministic(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	a, err := NewStatic(7).GetHistory(context.Background(), "MSFT", start, end)
	require.NoError(t, err)
	b, err := NewStatic(7).GetHistory(context.Background(), "msft", start.AddDate(0, 6, 0), end)
	require.NoError(t, err)
	other, err := NewStatic(7).GetHistory(context.Background(), "TSLA", start, end)
	require.NoError(t, err)

	assert.Equal(t, a[len(a)-1], b[len(b)-1], "close on a date must not depend on the window")
	assert.NotEqual(t, a[0].Close, other[0].Close)
	for i, p := range a {
		assert.NotEqual(t, time.Saturday, p.Date.Weekday())
		assert.NotEqual(t, time.Sunday, p.Date.Weekday())
		assert.Greater(t, p.Close, 0.0)
		if i > 0 {
			assert.True(t, p.Date.After(a[i-1].Date))
		}
	}
}

func TestStaticFixedSeries(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2024, 3, day, 15, 30, 0, 0, time.UTC) }
	s := NewStatic(1, WithoutSynthetic(), WithSeries("abc", []types.PricePoint{
		{Date: d(3), Close: 12},
		{Date: d(1), Close: 10},
		{Date: d(2), Close: 11},
	}))

	points, err := s.GetHistory(context.Background(), "ABC", d(1), d(2))
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 10.0, points[0].Close)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), points[0].Date)

	_, err = s.GetHistory(context.Background(), "NOPE", d(1), d(3))
	assert.True(t, errors.Is(err, errs.ErrNoData))
}
