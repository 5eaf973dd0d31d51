package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 90, cfg.Analysis.HorizonDays)
	assert.Equal(t, 5, cfg.Analysis.LookbackYears)
	assert.True(t, cfg.Analysis.Explain)
	assert.Equal(t, "LEXICON", cfg.Sentiment.Classifier)
	assert.Equal(t, "NONE", cfg.LLM.Provider)
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
analysis:
  horizon_days: 30
  explain: false
  narration_timeout: 5s
market:
  source: STATIC
text_store:
  backend: SQLITE
  sqlite_path: /tmp/x.db
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Analysis.HorizonDays)
	assert.False(t, cfg.Analysis.Explain)
	assert.Equal(t, 5*time.Second, cfg.Analysis.NarrationTimeout)
	assert.Equal(t, 5, cfg.Analysis.LookbackYears)
	assert.Equal(t, "STATIC", cfg.Market.Source)
	assert.Equal(t, "SQLITE", cfg.TextStore.Backend)
}

func TestLoadConfigIgnoresEnsembleWeights(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
sentiment:
  weights:
    lexicon: 1
    shallow: 0
    classifier: 0
  classifier: LEXICON
`))
	require.NoError(t, err)
	assert.Equal(t, "LEXICON", cfg.Sentiment.Classifier)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("INSIGHT_LLM_PROVIDER", "CLAUDE")
	t.Setenv("INSIGHT_WATCH_TICKERS", "AAPL,MSFT")

	cfg, err := LoadConfig(writeConfig(t, "llm:\n  provider: GEMINI\n"))
	require.NoError(t, err)

	assert.Equal(t, "CLAUDE", cfg.LLM.Provider)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Watch.Tickers)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"horizon", func(c *Config) { c.Analysis.HorizonDays = 0 }},
		{"classifier", func(c *Config) { c.Sentiment.Classifier = "BERT" }},
		{"onnx paths", func(c *Config) { c.Sentiment.Classifier = "ONNX" }},
		{"market", func(c *Config) { c.Market.Source = "LIVE" }},
		{"text store", func(c *Config) { c.TextStore.Backend = "MONGO" }},
		{"http base url", func(c *Config) { c.TextStore.Backend = "HTTP" }},
		{"provider", func(c *Config) { c.LLM.Provider = "LLAMA" }},
		{"interval", func(c *Config) { c.Forecast.IntervalWidth = 1 }},
		{"concurrency", func(c *Config) { c.Sentiment.InfluencerConcurrency = 0 }},
		{"timezone", func(c *Config) { c.Journal.Timezone = "Mars/Olympus" }},
		{"digest time", func(c *Config) { c.Journal.DigestHour = 24 }},
		{"journal dir", func(c *Config) { c.Journal.Dir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	assert.NoError(t, c.Validate())
}
