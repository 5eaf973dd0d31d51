package market

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"stock-insight/internal/api"
	"stock-insight/internal/errs"
	"stock-insight/internal/interfaces"
	"stock-insight/internal/logger"
	"stock-insight/internal/types"
)

// Yahoo reads daily closes from the Yahoo Finance chart API
type Yahoo struct {
	client *api.Client
}

var _ interfaces.PriceHistoryProvider = (*Yahoo)(nil)

// NewYahoo creates a provider over client. The client should carry the chart
// API base URL and YahooFinanceHeaders.
func NewYahoo(client *api.Client) *Yahoo {
	return &Yahoo{client: client}
}

// yahooChart mirrors the subset of /v8/finance/chart used here
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *Yahoo) fetch(ctx context.Context, ticker string, query url.Values) (*yahooChart, error) {
	path := fmt.Sprintf("/v8/finance/chart/%s?%s", url.PathEscape(ticker), query.Encode())
	resp, err := y.client.GET(ctx, path)
	if err != nil {
		if api.IsStatus(err, http.StatusNotFound) {
			return nil, errs.NoData("yahoo.chart", "unknown symbol %s", ticker)
		}
		return nil, errs.Upstream("yahoo.chart", err)
	}

	var chart yahooChart
	if err := resp.ParseJSON(&chart); err != nil {
		return nil, errs.Upstream("yahoo.chart", err)
	}
	if chart.Chart.Error != nil {
		return nil, errs.NoData("yahoo.chart", "%s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, errs.NoData("yahoo.chart", "empty result for %s", ticker)
	}
	return &chart, nil
}

// GetHistory returns daily closes between start and end. Bars with a null
// close are skipped and dates are truncated to midnight UTC.
func (y *Yahoo) GetHistory(ctx context.Context, ticker string, start, end time.Time) ([]types.PricePoint, error) {
	q := url.Values{}
	q.Set("period1", fmt.Sprint(start.Unix()))
	q.Set("period2", fmt.Sprint(end.Unix()))
	q.Set("interval", "1d")
	q.Set("events", "history")

	chart, err := y.fetch(ctx, ticker, q)
	if err != nil {
		return nil, err
	}

	r := chart.Chart.Result[0]
	if len(r.Indicators.Quote) == 0 {
		return nil, errs.NoData("yahoo.GetHistory", "no quote data for %s", ticker)
	}
	closes := r.Indicators.Quote[0].Close

	byDate := make(map[time.Time]float64, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		d := time.Unix(ts, 0).UTC().Truncate(24 * time.Hour)
		// a later bar for the same day wins, matching the live bar replacing the close
		byDate[d] = *closes[i]
	}
	if len(byDate) == 0 {
		return nil, errs.NoData("yahoo.GetHistory", "no closes for %s in range", ticker)
	}

	points := make([]types.PricePoint, 0, len(byDate))
	for d, c := range byDate {
		points = append(points, types.PricePoint{Date: d, Close: c})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	logger.Debug(ctx, "Yahoo history fetched", "ticker", ticker, "bars", len(r.Timestamp), "points", len(points))
	return points, nil
}

// GetLatestClose returns the most recent non-null close over the last five sessions
func (y *Yahoo) GetLatestClose(ctx context.Context, ticker string) (float64, error) {
	q := url.Values{}
	q.Set("range", "5d")
	q.Set("interval", "1d")

	chart, err := y.fetch(ctx, ticker, q)
	if err != nil {
		return 0, err
	}
	r := chart.Chart.Result[0]
	if len(r.Indicators.Quote) > 0 {
		closes := r.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] != nil {
				return *closes[i], nil
			}
		}
	}
	if r.Meta.RegularMarketPrice > 0 {
		return r.Meta.RegularMarketPrice, nil
	}
	return 0, errs.NoData("yahoo.GetLatestClose", "no recent close for %s", ticker)
}
