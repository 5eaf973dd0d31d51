package sentiment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-insight/internal/errs"
	"stock-insight/internal/types"
)

type fakeStore struct {
	companies map[string][]types.Influencer
	texts     map[string][]string
	textsErr  error
	inflErr   error
}

func (f *fakeStore) GetInfluencers(_ context.Context, ticker string) ([]types.Influencer, error) {
	if f.inflErr != nil {
		return nil, f.inflErr
	}
	infl, ok := f.companies[ticker]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return infl, nil
}

func (f *fakeStore) GetTexts(_ context.Context, name string) ([]string, error) {
	if f.textsErr != nil {
		return nil, f.textsErr
	}
	return f.texts[name], nil
}

// tableScorer returns a fixed score per text
type tableScorer map[string]float64

func (s tableScorer) Score(_ context.Context, text string) (float64, error) {
	return s[text], nil
}

func authority(v float64) *float64 { return &v }

func TestAggregatorWeightsByAuthority(t *testing.T) {
	store := &fakeStore{
		companies: map[string][]types.Influencer{
			"ACME": {
				{Name: "A", Authority: authority(0.8)},
				{Name: "B", Authority: authority(0.2)},
			},
		},
		texts: map[string][]string{
			"A": {"a1", "a2"},
			"B": {"b1"},
		},
	}
	scorer := tableScorer{"a1": 0.8, "a2": 1.0, "b1": 0.1}

	for _, n := range []int{1, 4} {
		got, err := NewAggregator(store, scorer, WithConcurrency(n)).CompanyScore(context.Background(), "ACME")
		require.NoError(t, err)
		assert.Equal(t, 0.74, got.Score)
		assert.Empty(t, got.Fallback)
		assert.Len(t, got.Contributors, 2)
	}
}

func TestAggregatorUnknownCompany(t *testing.T) {
	store := &fakeStore{companies: map[string][]types.Influencer{}}

	for range 50 {
		got, err := NewAggregator(store, tableScorer{}).CompanyScore(context.Background(), "NOPE")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.Score, UnknownLow)
		assert.LessOrEqual(t, got.Score, UnknownHigh)
		assert.NotEqual(t, NeutralScore, got.Score)
		assert.Equal(t, types.FallbackUnknownCompany, got.Fallback)
	}
}

func TestAggregatorUnknownCompanyAvoidsExactNeutral(t *testing.T) {
	store := &fakeStore{companies: map[string][]types.Influencer{}}
	draws := []float64{0.5, 0.25}
	agg := NewAggregator(store, tableScorer{}, WithUniform(func() float64 {
		v := draws[0]
		draws = draws[1:]
		return v
	}))

	got, err := agg.CompanyScore(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Equal(t, 0.45, got.Score)
}

func TestAggregatorFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		store    *fakeStore
		fallback string
	}{
		{
			name:     "no influencers",
			store:    &fakeStore{companies: map[string][]types.Influencer{"ACME": {}}},
			fallback: types.FallbackNoInfluencers,
		},
		{
			name: "no texts",
			store: &fakeStore{
				companies: map[string][]types.Influencer{"ACME": {{Name: "A"}, {Name: "B"}}},
				texts:     map[string][]string{"B": {"  "}},
			},
			fallback: types.FallbackNoTexts,
		},
		{
			name: "zero authority",
			store: &fakeStore{
				companies: map[string][]types.Influencer{"ACME": {{Name: "A", Authority: authority(0)}}},
				texts:     map[string][]string{"A": {"a1"}},
			},
			fallback: types.FallbackZeroAuthority,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewAggregator(tt.store, tableScorer{"a1": 0.9}).CompanyScore(context.Background(), "ACME")
			require.NoError(t, err)
			assert.Equal(t, NeutralScore, got.Score)
			assert.Equal(t, tt.fallback, got.Fallback)
		})
	}
}

func TestAggregatorSkipsInfluencersWithoutTexts(t *testing.T) {
	store := &fakeStore{
		companies: map[string][]types.Influencer{"ACME": {
			{Name: "A", Authority: authority(0.9)},
			{Name: "Silent", Authority: authority(1)},
		}},
		texts: map[string][]string{"A": {"a1"}},
	}

	got, err := NewAggregator(store, tableScorer{"a1": 0.3}).CompanyScore(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, 0.3, got.Score)
	require.Len(t, got.Contributors, 1)
	assert.Equal(t, "A", got.Contributors[0].Name)
}

func TestAggregatorDefaultAuthority(t *testing.T) {
	store := &fakeStore{
		companies: map[string][]types.Influencer{"ACME": {
			{Name: "A"},
			{Name: "B", Authority: authority(0.5)},
		}},
		texts: map[string][]string{"A": {"a1"}, "B": {"b1"}},
	}

	got, err := NewAggregator(store, tableScorer{"a1": 1, "b1": 0}).CompanyScore(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, 0.5, got.Score)
	assert.Empty(t, got.Fallback)
}

func TestAggregatorStoreFailuresAreUpstream(t *testing.T) {
	boom := errors.New("connection refused")

	_, err := NewAggregator(&fakeStore{inflErr: boom}, tableScorer{}).CompanyScore(context.Background(), "ACME")
	assert.True(t, errors.Is(err, errs.ErrUpstream))
	assert.ErrorIs(t, err, boom)

	store := &fakeStore{
		companies: map[string][]types.Influencer{"ACME": {{Name: "A"}}},
		textsErr:  boom,
	}
	_, err = NewAggregator(store, tableScorer{}).CompanyScore(context.Background(), "ACME")
	assert.True(t, errors.Is(err, errs.ErrUpstream))
}

func TestAggregatorCancellationIsNotUpstream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAggregator(&fakeStore{inflErr: ctx.Err()}, tableScorer{}).CompanyScore(ctx, "ACME")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, errs.ErrUpstream))

	store := &fakeStore{
		companies: map[string][]types.Influencer{"ACME": {{Name: "A"}}},
		textsErr:  ctx.Err(),
	}
	_, err = NewAggregator(store, tableScorer{}).CompanyScore(ctx, "ACME")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, errs.ErrUpstream))
}
