package digest

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-insight/internal/journal"
	"stock-insight/internal/types"
)

func TestSummarizeDay(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)
	clock := func() time.Time { return day }
	j := journal.New(dir, journal.WithClock(clock))

	results := []*types.AnalysisResult{
		{Ticker: "MSFT", FinalScore: 0.70, Recommendation: types.Buy, Risk: types.RiskLow, LastPrice: 410, PredictedPrice: 430, PctChange: 4.878},
		{Ticker: "AAPL", FinalScore: 0.50, Recommendation: types.Hold, Risk: types.RiskMedium, SentimentFallback: types.FallbackNoTexts},
		{Ticker: "MSFT", FinalScore: 0.60, Recommendation: types.Hold, Risk: types.RiskMedium, LastPrice: 412, PredictedPrice: 415, PctChange: 0.728},
	}
	for _, r := range results {
		require.NoError(t, j.Append(r))
	}

	s := NewSummarizer(j, WithClock(clock))
	p, err := s.SummarizeToday()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "digest", "2025-03-14.csv"), p)

	f, err := os.Open(p)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 4)
	assert.Equal(t, "ticker", rows[0][0])
	assert.Equal(t, []string{"AAPL", "1", "0", "1", "0", "0.5000", "Hold", "Medium", "0.00", "0.00", "0.000", "1"}, rows[1])
	assert.Equal(t, []string{"MSFT", "2", "1", "1", "0", "0.6500", "Hold", "Medium", "412.00", "415.00", "0.728", "0"}, rows[2])
	assert.Equal(t, []string{"TOTAL", "3", "1", "2", "0"}, rows[3][:5])
}

func TestSummarizeDayWithoutJournal(t *testing.T) {
	s := NewSummarizer(journal.New(t.TempDir()))
	p, err := s.SummarizeDay(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, p)
}

func TestShouldRunNow(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	j := journal.New(dir, journal.WithClock(clock))
	s := NewSummarizer(j, WithClock(clock), WithCutoff(16, 30))

	run, _ := s.ShouldRunNow()
	assert.False(t, run, "before cutoff")

	now = now.Add(2 * time.Hour)
	run, p := s.ShouldRunNow()
	assert.True(t, run)

	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, nil, 0o644))
	run, _ = s.ShouldRunNow()
	assert.False(t, run, "digest already written")
}
