package sentimentobs

import (
	"context"
	"errors"

	"stock-insight/internal/errs"
	"stock-insight/internal/interfaces"
	"stock-insight/internal/logger"
	"stock-insight/internal/metrics"
	"stock-insight/internal/trace"
	"stock-insight/internal/types"
)

// observableStore wraps a SentimentTextStore with observability (logging, tracing & metrics)
type observableStore struct {
	store   interfaces.SentimentTextStore
	backend string
}

// Compile-time interface checks
var (
	_ interfaces.SentimentTextStore  = (*observableStore)(nil)
	_ interfaces.SentimentAggregator = (*observableAggregator)(nil)
)

// Wrap wraps a text store with observability middleware
func Wrap(store interfaces.SentimentTextStore, backend string) interfaces.SentimentTextStore {
	return &observableStore{store: store, backend: backend}
}

func (s *observableStore) GetInfluencers(ctx context.Context, ticker string) ([]types.Influencer, error) {
	ctx, span := trace.StartSpan(ctx, "textstore.GetInfluencers")
	defer span.End()

	influencers, err := s.store.GetInfluencers(ctx, ticker)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		logger.DebugSkip(ctx, 1, "Company not tracked by text store", "ticker", ticker, "backend", s.backend)
	case errors.Is(err, context.Canceled):
		logger.DebugSkip(ctx, 1, "Influencer lookup canceled", "ticker", ticker, "backend", s.backend)
	case err != nil:
		metrics.RecordUpstreamError("textstore", "GetInfluencers")
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch influencers", err, "ticker", ticker, "backend", s.backend)
	default:
		logger.DebugSkip(ctx, 1, "Influencers fetched", "ticker", ticker, "count", len(influencers))
	}
	return influencers, err
}

func (s *observableStore) GetTexts(ctx context.Context, influencer string) ([]string, error) {
	ctx, span := trace.StartSpan(ctx, "textstore.GetTexts")
	defer span.End()

	texts, err := s.store.GetTexts(ctx, influencer)
	if errors.Is(err, context.Canceled) {
		logger.DebugSkip(ctx, 1, "Text lookup canceled", "influencer", influencer, "backend", s.backend)
		return nil, err
	}
	if err != nil {
		metrics.RecordUpstreamError("textstore", "GetTexts")
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch texts", err, "influencer", influencer, "backend", s.backend)
		return nil, err
	}
	logger.DebugSkip(ctx, 1, "Texts fetched", "influencer", influencer, "count", len(texts))
	return texts, nil
}

// observableAggregator logs fallbacks and contributor counts
type observableAggregator struct {
	agg interfaces.SentimentAggregator
}

// WrapAggregator wraps a sentiment aggregator with observability middleware
func WrapAggregator(agg interfaces.SentimentAggregator) interfaces.SentimentAggregator {
	return &observableAggregator{agg: agg}
}

func (oa *observableAggregator) CompanyScore(ctx context.Context, ticker string) (types.CompanySentiment, error) {
	timer := logger.StartOperation(ctx, "sentiment.CompanyScore", "ticker", ticker)
	ctx = timer.GetContext()

	cs, err := oa.agg.CompanyScore(ctx, ticker)
	if err != nil {
		timer.EndWithError(err)
		return cs, err
	}

	if cs.Fallback != types.FallbackNone {
		metrics.RecordFallback(cs.Fallback)
		logger.Fallback(ctx, ticker, cs.Fallback, cs.Score)
	} else {
		logger.InfoSkip(ctx, 1, "Company sentiment computed",
			"ticker", ticker,
			"score", cs.Score,
			"contributors", len(cs.Contributors),
		)
	}
	timer.End("score", cs.Score)
	return cs, nil
}
