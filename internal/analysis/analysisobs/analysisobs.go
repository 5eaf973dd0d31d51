package analysisobs

import (
	"context"
	"errors"

	"stock-insight/internal/errs"
	"stock-insight/internal/interfaces"
	"stock-insight/internal/logger"
	"stock-insight/internal/metrics"
	"stock-insight/internal/types"
)

// observableAnalyzer wraps an Analyzer with observability (logging, tracing & metrics)
type observableAnalyzer struct {
	analyzer interfaces.Analyzer
}

// Compile-time interface check
var _ interfaces.Analyzer = (*observableAnalyzer)(nil)

// Wrap wraps an analyzer with observability middleware
func Wrap(analyzer interfaces.Analyzer) interfaces.Analyzer {
	return &observableAnalyzer{analyzer: analyzer}
}

func (oa *observableAnalyzer) Analyze(ctx context.Context, ticker string, horizonDays int) (*types.AnalysisResult, error) {
	timer := logger.StartOperation(ctx, "analysis.Analyze", "ticker", ticker, "horizon_days", horizonDays)
	ctx = timer.GetContext()

	result, err := oa.analyzer.Analyze(ctx, ticker, horizonDays)
	if err != nil {
		// only collaborator failures are worth retrying by the caller
		d := timer.EndWithError(err, "kind", errs.KindName(err), "retryable", errors.Is(err, errs.ErrUpstream))
		metrics.RecordAnalysis(d, "", "", err)
		return nil, err
	}

	d := timer.End(
		"analysis_id", result.AnalysisID,
		"recommendation", string(result.Recommendation),
		"risk", string(result.Risk),
	)
	metrics.RecordAnalysis(d, string(result.Recommendation), string(result.Risk), nil)

	logger.InfoSkip(ctx, 1, "Analysis completed",
		"analysis_id", result.AnalysisID,
		"ticker", result.Ticker,
		"last_price", result.LastPrice,
		"predicted_price", result.PredictedPrice,
		"final_score", result.FinalScore,
		"duration_ms", d.Milliseconds(),
	)
	return result, nil
}
