package marketobs

import (
	"context"
	"errors"
	"time"

	"stock-insight/internal/errs"
	"stock-insight/internal/interfaces"
	"stock-insight/internal/logger"
	"stock-insight/internal/metrics"
	"stock-insight/internal/trace"
	"stock-insight/internal/types"
)

// observablePrices wraps a PriceHistoryProvider with observability (logging, tracing & metrics)
type observablePrices struct {
	prices interfaces.PriceHistoryProvider
	source string
}

// Compile-time interface check
var _ interfaces.PriceHistoryProvider = (*observablePrices)(nil)

// Wrap wraps a price provider with observability middleware
func Wrap(prices interfaces.PriceHistoryProvider, source string) interfaces.PriceHistoryProvider {
	return &observablePrices{prices: prices, source: source}
}

// GetHistory fetches daily closes with observability
func (op *observablePrices) GetHistory(ctx context.Context, ticker string, start, end time.Time) ([]types.PricePoint, error) {
	ctx, span := trace.StartSpan(ctx, "market.GetHistory")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching price history",
		"ticker", ticker,
		"source", op.source,
		"start", start.Format("2006-01-02"),
		"end", end.Format("2006-01-02"),
	)

	points, err := op.prices.GetHistory(ctx, ticker, start, end)
	if err != nil {
		op.fail(ctx, "GetHistory", "Failed to fetch price history", ticker, err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Price history fetched", "ticker", ticker, "points", len(points))
	return points, nil
}

// GetLatestClose fetches the most recent close with observability
func (op *observablePrices) GetLatestClose(ctx context.Context, ticker string) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "market.GetLatestClose")
	defer span.End()

	price, err := op.prices.GetLatestClose(ctx, ticker)
	if err != nil {
		op.fail(ctx, "GetLatestClose", "Failed to fetch latest close", ticker, err)
		return 0, err
	}

	logger.DebugSkip(ctx, 1, "Latest close fetched", "ticker", ticker, "price", price)
	return price, nil
}

// fail logs err; only upstream failures count against the collaborator
func (op *observablePrices) fail(ctx context.Context, operation, msg, ticker string, err error) {
	if errors.Is(err, errs.ErrUpstream) {
		metrics.RecordUpstreamError("market", operation)
		logger.ErrorWithErrSkip(ctx, 2, msg, err, "ticker", ticker, "source", op.source)
		return
	}
	logger.WarnSkip(ctx, 2, msg, "ticker", ticker, "source", op.source, "error", err)
}
