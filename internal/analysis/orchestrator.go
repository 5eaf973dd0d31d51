package analysis

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"stock-insight/internal/errs"
	"stock-insight/internal/fusion"
	"stock-insight/internal/interfaces"
	"stock-insight/internal/logger"
	"stock-insight/internal/types"
)

// Horizon bounds in calendar days
const (
	MinHorizonDays     = 1
	MaxHorizonDays     = 3650
	DefaultHorizonDays = 90
)

// DefaultHistoryPoints is how many recent closes the narration prompt carries
const DefaultHistoryPoints = 30

const maxTickerLen = 15

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.^=-]+$`)

// NormalizeTicker trims and upper-cases ticker, rejecting malformed symbols
func NormalizeTicker(ticker string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	switch {
	case t == "":
		return "", errs.InvalidInput("analysis.NormalizeTicker", "ticker is empty")
	case len(t) > maxTickerLen:
		return "", errs.InvalidInput("analysis.NormalizeTicker", "ticker %q longer than %d characters", t, maxTickerLen)
	case !tickerPattern.MatchString(t):
		return "", errs.InvalidInput("analysis.NormalizeTicker", "ticker %q contains invalid characters", t)
	}
	return t, nil
}

// Orchestrator runs the forecast and sentiment branches concurrently, fuses
// their scores and optionally asks a narrator to explain the result
type Orchestrator struct {
	forecaster       interfaces.Forecaster
	sentiment        interfaces.SentimentAggregator
	narrator         interfaces.NarrativeGenerator
	narrationTimeout time.Duration
	historyPoints    int
	newID            func() string
}

var _ interfaces.Analyzer = (*Orchestrator)(nil)

type Option func(*Orchestrator)

// WithNarrator enables the explanation step. Without it the explanation is empty.
func WithNarrator(n interfaces.NarrativeGenerator) Option {
	return func(o *Orchestrator) { o.narrator = n }
}

// WithNarrationTimeout bounds the explanation step; zero means no extra bound
func WithNarrationTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.narrationTimeout = d }
}

// WithHistoryPoints sets how many recent closes the prompt carries
func WithHistoryPoints(n int) Option {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.historyPoints = n
		}
	}
}

// WithIDSource replaces the analysis id generator
func WithIDSource(f func() string) Option {
	return func(o *Orchestrator) { o.newID = f }
}

func New(forecaster interfaces.Forecaster, sentiment interfaces.SentimentAggregator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		forecaster:    forecaster,
		sentiment:     sentiment,
		historyPoints: DefaultHistoryPoints,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Analyze produces the fused signal for ticker over horizonDays. Forecast and
// text-store failures fail the analysis; narration failures never do.
func (o *Orchestrator) Analyze(ctx context.Context, ticker string, horizonDays int) (*types.AnalysisResult, error) {
	symbol, err := NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	if horizonDays < MinHorizonDays || horizonDays > MaxHorizonDays {
		return nil, errs.InvalidInput("analysis.Analyze", "horizon_days must be between %d and %d, got %d",
			MinHorizonDays, MaxHorizonDays, horizonDays)
	}

	id := o.newID()
	logger.Debug(ctx, "Analysis started", "analysis_id", id, "ticker", symbol, "horizon_days", horizonDays)

	var (
		forecast  *types.ForecastResult
		sentiment types.CompanySentiment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := o.forecaster.Forecast(gctx, symbol, horizonDays)
		forecast = r
		return err
	})
	g.Go(func() error {
		r, err := o.sentiment.CompanyScore(gctx, symbol)
		sentiment = r
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	signal := fusion.Fuse(forecast.DirectionalScore, sentiment.Score, forecast.PctChange)
	result := &types.AnalysisResult{
		AnalysisID:        id,
		Ticker:            symbol,
		HorizonDays:       horizonDays,
		LastPrice:         forecast.LastPrice,
		PredictedPrice:    forecast.PredictedPrice,
		PctChange:         forecast.PctChange,
		StockScore:        signal.StockScore,
		TweetScore:        signal.TweetScore,
		FinalScore:        signal.FinalScore,
		Recommendation:    signal.Recommendation,
		Risk:              signal.Risk,
		Metrics:           forecast.Metrics,
		SentimentFallback: sentiment.Fallback,
		Series:            forecast.Series,
	}

	if o.narrator != nil {
		result.Explanation = o.explain(ctx, result)
	}

	logger.Signal(ctx, symbol, string(result.Recommendation), string(result.Risk), result.FinalScore,
		"analysis_id", id,
		"stock_score", result.StockScore,
		"tweet_score", result.TweetScore,
		"pct_change", result.PctChange,
	)
	return result, nil
}

// explain returns the narrator's text or a placeholder naming the failure
func (o *Orchestrator) explain(ctx context.Context, r *types.AnalysisResult) string {
	prompt, err := BuildPrompt(r, RecentHistory(r.Series, o.historyPoints))
	if err != nil {
		return ExplanationErrorPrefix + err.Error()
	}

	if o.narrationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.narrationTimeout)
		defer cancel()
	}

	text, err := o.narrator.Explain(ctx, prompt)
	if err != nil {
		logger.Warn(ctx, "Narration failed, using placeholder", "ticker", r.Ticker, "error", err)
		return ExplanationErrorPrefix + err.Error()
	}
	return text
}
