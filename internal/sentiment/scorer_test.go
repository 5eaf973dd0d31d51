package sentiment

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-insight/internal/errs"
	"stock-insight/internal/interfaces"
)

type fixedPolarity float64

func (f fixedPolarity) Polarity(string) float64 { return float64(f) }

type fixedClassifier struct {
	polarity float64
	err      error
}

func (f fixedClassifier) Classify(context.Context, string) (float64, error) {
	return f.polarity, f.err
}

func TestScorerWeightsEstimators(t *testing.T) {
	s := NewScorer(fixedPolarity(1), fixedPolarity(-1), fixedClassifier{polarity: 0}, DefaultWeights)

	got, err := s.Score(context.Background(), "anything")
	require.NoError(t, err)
	// 0.3*1 + 0.2*0 + 0.5*0.5
	assert.InDelta(t, 0.55, got, 1e-12)
}

func TestDefaultWeights(t *testing.T) {
	assert.Equal(t, Weights{Lexicon: 0.3, Shallow: 0.2, Classifier: 0.5}, DefaultWeights)
}

func TestScorerBounds(t *testing.T) {
	high := NewScorer(fixedPolarity(1), fixedPolarity(1), fixedClassifier{polarity: 1}, DefaultWeights)
	low := NewScorer(fixedPolarity(-1), fixedPolarity(-1), fixedClassifier{polarity: -1}, DefaultWeights)

	h, err := high.Score(context.Background(), "x")
	require.NoError(t, err)
	l, err := low.Score(context.Background(), "x")
	require.NoError(t, err)

	assert.InDelta(t, 1.0, h, 1e-12)
	assert.InDelta(t, 0.0, l, 1e-12)
}

func TestScorerRejectsEmptyText(t *testing.T) {
	s := NewDefaultScorer(nil)
	for _, text := range []string{"", "   \n\t"} {
		_, err := s.Score(context.Background(), text)
		assert.True(t, errors.Is(err, errs.ErrInvalidInput))
	}
}

func TestScorerPropagatesClassifierError(t *testing.T) {
	boom := errors.New("session closed")
	s := NewScorer(fixedPolarity(0), fixedPolarity(0), fixedClassifier{err: boom}, DefaultWeights)

	_, err := s.Score(context.Background(), "text")
	assert.ErrorIs(t, err, boom)
}

func TestDefaultScorerDirection(t *testing.T) {
	s := NewDefaultScorer(nil)
	ctx := context.Background()

	pos, err := s.Score(ctx, "Strong growth, great quarter, very bullish!")
	require.NoError(t, err)
	neg, err := s.Score(ctx, "Terrible losses, weak outlook, bearish and disappointing")
	require.NoError(t, err)

	assert.Greater(t, pos, 0.5)
	assert.Less(t, neg, 0.5)
}

func TestLazyClassifierLoadsOnce(t *testing.T) {
	var loads atomic.Int32
	lazy := NewLazyClassifier(func() (interfaces.SentimentClassifier, error) {
		loads.Add(1)
		return fixedClassifier{polarity: 0.25}, nil
	})

	for range 5 {
		got, err := lazy.Classify(context.Background(), "text")
		require.NoError(t, err)
		assert.Equal(t, 0.25, got)
	}
	assert.True(t, lazy.Loaded())
	assert.Equal(t, int32(1), loads.Load())
}

func TestLazyClassifierRemembersLoadError(t *testing.T) {
	boom := errors.New("model missing")
	lazy := NewLazyClassifier(func() (interfaces.SentimentClassifier, error) { return nil, boom })

	_, err := lazy.Classify(context.Background(), "text")
	assert.ErrorIs(t, err, boom)
	_, err = lazy.Classify(context.Background(), "text")
	assert.ErrorIs(t, err, boom)
	assert.False(t, lazy.Loaded())
}
