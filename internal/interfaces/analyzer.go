package interfaces

import (
	"context"

	"stock-insight/internal/types"
)

// Analyzer produces an investment signal for a ticker
type Analyzer interface {
	Analyze(ctx context.Context, ticker string, horizonDays int) (*types.AnalysisResult, error)
}

// Forecaster fits a price model and extends it horizonDays past the last close
type Forecaster interface {
	Forecast(ctx context.Context, ticker string, horizonDays int) (*types.ForecastResult, error)
}

// SentimentAggregator computes the authority-weighted sentiment for a company
type SentimentAggregator interface {
	CompanyScore(ctx context.Context, ticker string) (types.CompanySentiment, error)
}
