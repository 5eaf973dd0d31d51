package interfaces

import (
	"context"
	"time"

	"stock-insight/internal/types"
)

// PriceHistoryProvider supplies daily closing prices
type PriceHistoryProvider interface {
	// GetHistory returns closes in [start, end], ordered by date ascending with no duplicate dates
	GetHistory(ctx context.Context, ticker string, start, end time.Time) ([]types.PricePoint, error)

	// GetLatestClose returns the most recent close for ticker
	GetLatestClose(ctx context.Context, ticker string) (float64, error)
}
