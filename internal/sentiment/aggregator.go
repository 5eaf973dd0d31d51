package sentiment

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"strings"

	"golang.org/x/sync/errgroup"

	"stock-insight/internal/errs"
	"stock-insight/internal/interfaces"
	"stock-insight/internal/round"
	"stock-insight/internal/types"
)

// NeutralScore is returned when a known company has nothing to aggregate
const NeutralScore = 0.5

// Bounds of the placeholder drawn for companies the store does not know
const (
	UnknownLow  = 0.4
	UnknownHigh = 0.6
)

// TextScorer scores one text unit in [0, 1]
type TextScorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// Aggregator combines per-influencer ensemble sentiment into one
// authority-weighted company score.
type Aggregator struct {
	store       interfaces.SentimentTextStore
	scorer      TextScorer
	concurrency int
	uniform     func() float64
}

var _ interfaces.SentimentAggregator = (*Aggregator)(nil)

type AggregatorOption func(*Aggregator)

// WithConcurrency scores up to n influencers at once
func WithConcurrency(n int) AggregatorOption {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithUniform replaces the [0,1) source used for the unknown-company placeholder
func WithUniform(f func() float64) AggregatorOption {
	return func(a *Aggregator) { a.uniform = f }
}

func NewAggregator(store interfaces.SentimentTextStore, scorer TextScorer, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		store:       store,
		scorer:      scorer,
		concurrency: 1,
		uniform:     rand.Float64,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CompanyScore returns the authority-weighted sentiment for ticker.
// Only store failures are returned as errors; missing data resolves to a fallback score.
func (a *Aggregator) CompanyScore(ctx context.Context, ticker string) (types.CompanySentiment, error) {
	out := types.CompanySentiment{Ticker: ticker}

	influencers, err := a.store.GetInfluencers(ctx, ticker)
	if errors.Is(err, errs.ErrNotFound) {
		out.Score = a.unknownPlaceholder()
		out.Fallback = types.FallbackUnknownCompany
		return out, nil
	}
	if err != nil {
		return out, errs.Upstream("textstore.GetInfluencers", err)
	}
	if len(influencers) == 0 {
		out.Score = NeutralScore
		out.Fallback = types.FallbackNoInfluencers
		return out, nil
	}

	results := make([]*types.InfluencerSentiment, len(influencers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, inf := range influencers {
		g.Go(func() error {
			res, err := a.scoreInfluencer(gctx, inf)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}

	var weighted, authority float64
	for _, r := range results {
		if r == nil {
			continue
		}
		out.Contributors = append(out.Contributors, *r)
		weighted += r.Score * r.Authority
		authority += r.Authority
	}

	switch {
	case len(out.Contributors) == 0:
		out.Score = NeutralScore
		out.Fallback = types.FallbackNoTexts
	case authority == 0:
		out.Score = NeutralScore
		out.Fallback = types.FallbackZeroAuthority
	default:
		out.Score = round.To(weighted/authority, round.ScorePlaces)
	}
	return out, nil
}

// scoreInfluencer returns nil when the influencer has no scorable texts
func (a *Aggregator) scoreInfluencer(ctx context.Context, inf types.Influencer) (*types.InfluencerSentiment, error) {
	texts, err := a.store.GetTexts(ctx, inf.Name)
	if err != nil {
		return nil, errs.Upstream("textstore.GetTexts", err)
	}

	var sum float64
	var n int
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		s, err := a.scorer.Score(ctx, text)
		if err != nil {
			return nil, err
		}
		sum += s
		n++
	}
	if n == 0 {
		return nil, nil
	}

	return &types.InfluencerSentiment{
		Name:      inf.Name,
		Authority: math.Max(0, math.Min(1, inf.AuthorityScore())),
		Score:     sum / float64(n),
		Texts:     n,
	}, nil
}

// unknownPlaceholder draws a weakly neutral score so that an unknown company
// never reads as an exact 0.5
func (a *Aggregator) unknownPlaceholder() float64 {
	for range 8 {
		v := round.To(UnknownLow+(UnknownHigh-UnknownLow)*a.uniform(), round.ScorePlaces)
		if v != NeutralScore {
			return v
		}
	}
	return UnknownLow
}
