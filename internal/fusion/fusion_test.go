package fusion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"stock-insight/internal/types"
)

func TestFinalScoreRoundsToFourPlaces(t *testing.T) {
	for _, s := range []float64{0, 0.123456, 0.5, 0.731059, 1} {
		for _, w := range []float64{0, 0.3333333, 0.5, 0.74, 1} {
			want := math.Round((0.4*s+0.6*w)*1e4) / 1e4
			assert.InDelta(t, want, FinalScore(s, w), 1e-12, "stock=%v tweet=%v", s, w)
		}
	}
	assert.Equal(t, 0.5, FinalScore(0.5, 0.5))
	assert.Equal(t, 0.6, FinalScore(0.3, 0.8))
}

func TestRecommendBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  types.Recommendation
	}{
		{0.70, types.Hold},
		{0.7000001, types.Buy},
		{0.30, types.Hold},
		{0.2999999, types.Sell},
		{0.5, types.Hold},
		{0.95, types.Buy},
		{0.0, types.Sell},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Recommend(tt.score), "score=%v", tt.score)
	}
}

func TestAssessRisk(t *testing.T) {
	tests := []struct {
		name  string
		pct   float64
		score float64
		want  types.Risk
	}{
		{"large move", 11, 0.5, types.RiskHigh},
		{"large drop", -11, 0.5, types.RiskHigh},
		{"medium move", 6, 0.5, types.RiskMedium},
		{"small move", 2, 0.5, types.RiskLow},
		{"very bullish score overrides", 0, 0.95, types.RiskHigh},
		{"bearish score overrides medium", 6, 0.35, types.RiskHigh},
		{"edges are not high", 10, 0.4, types.RiskMedium},
		{"five percent is low", 5, 0.9, types.RiskLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssessRisk(tt.pct, tt.score))
		})
	}
}

func TestFuseNeutralInputs(t *testing.T) {
	sig := Fuse(0.5, 0.5, 0)
	assert.Equal(t, 0.5, sig.FinalScore)
	assert.Equal(t, types.Hold, sig.Recommendation)
	assert.Equal(t, types.RiskLow, sig.Risk)
}
