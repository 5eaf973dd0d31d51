package sentiment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-insight/internal/errs"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		score, oldMin, oldMax, want float64
	}{
		{0, -1, 1, 0.5},
		{1, -1, 1, 1.0},
		{-1, -1, 1, 0.0},
		{0.5, 0, 1, 0.5},
		{3, 1, 5, 0.5},
	}
	for _, tt := range tests {
		got, err := Normalize(tt.score, tt.oldMin, tt.oldMax, 0, 1)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12)
	}
}

func TestNormalizeCustomTarget(t *testing.T) {
	got, err := Normalize(0, -1, 1, 10, 20)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, got, 1e-12)
}

func TestNormalizeDegenerateRange(t *testing.T) {
	_, err := Normalize(0.3, 1, 1, 0, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrDomain))
}
