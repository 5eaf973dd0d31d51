package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. INSIGHT_LLM_PROVIDER=CLAUDE
const EnvPrefix = "INSIGHT"

type Config struct {
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Forecast  ForecastConfig  `yaml:"forecast" envconfig:"FORECAST"`
	Sentiment SentimentConfig `yaml:"sentiment" envconfig:"SENTIMENT"`
	Market    MarketConfig    `yaml:"market" envconfig:"MARKET"`
	TextStore TextStoreConfig `yaml:"text_store" envconfig:"TEXT_STORE"`
	LLM       LLMConfig       `yaml:"llm" envconfig:"LLM"`
	Watch     WatchConfig     `yaml:"watch" envconfig:"WATCH"`
	Metrics   MetricsConfig   `yaml:"metrics" envconfig:"METRICS"`
	Journal   JournalConfig   `yaml:"journal" envconfig:"JOURNAL"`
}

type AnalysisConfig struct {
	HorizonDays           int           `yaml:"horizon_days" envconfig:"HORIZON_DAYS"`
	LookbackYears         int           `yaml:"lookback_years" envconfig:"LOOKBACK_YEARS"`
	Explain               bool          `yaml:"explain" envconfig:"EXPLAIN"`
	NarrationTimeout      time.Duration `yaml:"narration_timeout" envconfig:"NARRATION_TIMEOUT"`
	FetchTimeout          time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT"`
	HistoryPointsInPrompt int           `yaml:"history_points_in_prompt" envconfig:"HISTORY_POINTS_IN_PROMPT"`
}

// ForecastConfig tunes the additive trend + seasonality model
type ForecastConfig struct {
	IntervalWidth    float64 `yaml:"interval_width" envconfig:"INTERVAL_WIDTH"`
	Changepoints     int     `yaml:"changepoints" envconfig:"CHANGEPOINTS"`
	ChangepointRange float64 `yaml:"changepoint_range" envconfig:"CHANGEPOINT_RANGE"`
	YearlyOrder      int     `yaml:"yearly_order" envconfig:"YEARLY_ORDER"`
	WeeklyOrder      int     `yaml:"weekly_order" envconfig:"WEEKLY_ORDER"`
	DailyOrder       int     `yaml:"daily_order" envconfig:"DAILY_ORDER"`
	ChangepointPrior float64 `yaml:"changepoint_prior_scale" envconfig:"CHANGEPOINT_PRIOR_SCALE"`
	SeasonalityPrior float64 `yaml:"seasonality_prior_scale" envconfig:"SEASONALITY_PRIOR_SCALE"`
	NoiseScale       float64 `yaml:"noise_scale" envconfig:"NOISE_SCALE"`
}

type SentimentConfig struct {
	Classifier            string     `yaml:"classifier" envconfig:"CLASSIFIER"` // LEXICON or ONNX
	ONNX                  ONNXConfig `yaml:"onnx" envconfig:"ONNX"`
	InfluencerConcurrency int        `yaml:"influencer_concurrency" envconfig:"INFLUENCER_CONCURRENCY"`
}

// ONNXConfig locates the exported FinBERT model
type ONNXConfig struct {
	ModelPath   string `yaml:"model_path" envconfig:"MODEL_PATH"`
	VocabPath   string `yaml:"vocab_path" envconfig:"VOCAB_PATH"`
	LibraryPath string `yaml:"library_path" envconfig:"LIBRARY_PATH"`
	MaxTokens   int    `yaml:"max_tokens" envconfig:"MAX_TOKENS"`
}

type MarketConfig struct {
	Source            string        `yaml:"source" envconfig:"SOURCE"` // YAHOO, KITE or STATIC
	BaseURL           string        `yaml:"base_url" envconfig:"BASE_URL"`
	RequestsPerMinute int           `yaml:"requests_per_minute" envconfig:"REQUESTS_PER_MINUTE"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	StaticSeed        int64         `yaml:"static_seed" envconfig:"STATIC_SEED"`
	Exchange          string        `yaml:"exchange" envconfig:"EXCHANGE"` // default Kite exchange for bare symbols
}

type TextStoreConfig struct {
	Backend       string        `yaml:"backend" envconfig:"BACKEND"` // MEMORY, SQLITE, HTTP or SCRAPE
	SQLitePath    string        `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
	BaseURL       string        `yaml:"base_url" envconfig:"BASE_URL"`
	SeedFile      string        `yaml:"seed_file" envconfig:"SEED_FILE"`
	CacheTTL      time.Duration `yaml:"cache_ttl" envconfig:"CACHE_TTL"`
	ScrapeTimeout time.Duration `yaml:"scrape_timeout" envconfig:"SCRAPE_TIMEOUT"`
	UserAgent     string        `yaml:"user_agent" envconfig:"USER_AGENT"`
}

type LLMConfig struct {
	Provider    string  `yaml:"provider" envconfig:"PROVIDER"` // GEMINI, CLAUDE, OPENAI or NONE
	Model       string  `yaml:"model" envconfig:"MODEL"`
	MaxTokens   int     `yaml:"max_tokens" envconfig:"MAX_TOKENS"`
	Temperature float32 `yaml:"temperature" envconfig:"TEMPERATURE"`
	System      string  `yaml:"system" envconfig:"SYSTEM"`
}

type WatchConfig struct {
	Schedule    string   `yaml:"schedule" envconfig:"SCHEDULE"`
	Tickers     []string `yaml:"tickers" envconfig:"TICKERS"`
	HorizonDays int      `yaml:"horizon_days" envconfig:"HORIZON_DAYS"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr" envconfig:"ADDR"`
}

// JournalConfig controls where watch-mode signals and daily digests are written
type JournalConfig struct {
	Enabled       bool   `yaml:"enabled" envconfig:"ENABLED"`
	Dir           string `yaml:"dir" envconfig:"DIR"`
	Timezone      string `yaml:"timezone" envconfig:"TIMEZONE"`
	RetentionDays int    `yaml:"retention_days" envconfig:"RETENTION_DAYS"`
	DigestHour    int    `yaml:"digest_hour" envconfig:"DIGEST_HOUR"`
	DigestMinute  int    `yaml:"digest_minute" envconfig:"DIGEST_MINUTE"`
}

// Location resolves Timezone, defaulting to UTC
func (j JournalConfig) Location() (*time.Location, error) {
	if j.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(j.Timezone)
}

// Default returns the configuration used when a key is absent from both the file and the environment
func Default() Config {
	var c Config
	c.Analysis = AnalysisConfig{
		HorizonDays:           90,
		LookbackYears:         5,
		Explain:               true,
		NarrationTimeout:      30 * time.Second,
		FetchTimeout:          20 * time.Second,
		HistoryPointsInPrompt: 30,
	}
	c.Forecast = ForecastConfig{
		IntervalWidth:    0.8,
		Changepoints:     25,
		ChangepointRange: 0.8,
		YearlyOrder:      10,
		WeeklyOrder:      3,
		DailyOrder:       4,
		ChangepointPrior: 0.05,
		SeasonalityPrior: 10,
		NoiseScale:       0.1,
	}
	c.Sentiment.Classifier = "LEXICON"
	c.Sentiment.ONNX.MaxTokens = 512
	c.Sentiment.InfluencerConcurrency = 1
	c.Market = MarketConfig{
		Source:            "YAHOO",
		BaseURL:           "https://query1.finance.yahoo.com",
		RequestsPerMinute: 60,
		Timeout:           15 * time.Second,
		StaticSeed:        42,
		Exchange:          "NSE",
	}
	c.TextStore = TextStoreConfig{
		Backend:       "MEMORY",
		SQLitePath:    "data/insight.db",
		SeedFile:      "companies.yaml",
		CacheTTL:      5 * time.Minute,
		ScrapeTimeout: 30 * time.Second,
	}
	c.LLM = LLMConfig{
		Provider:    "NONE",
		MaxTokens:   512,
		Temperature: 0.8,
		System:      "You are a concise equity research assistant.",
	}
	c.Watch = WatchConfig{
		Schedule:    "0 30 16 * * 1-5",
		HorizonDays: 90,
	}
	c.Journal = JournalConfig{
		Enabled:    true,
		Dir:        "logs",
		Timezone:   "UTC",
		DigestHour: 22,
	}
	return c
}

func (c *Config) Validate() error {
	if c.Analysis.HorizonDays < 1 || c.Analysis.HorizonDays > 3650 {
		return fmt.Errorf("analysis.horizon_days must be between 1-3650, got %d", c.Analysis.HorizonDays)
	}
	if c.Analysis.LookbackYears < 1 {
		return fmt.Errorf("analysis.lookback_years must be positive, got %d", c.Analysis.LookbackYears)
	}
	if c.Analysis.HistoryPointsInPrompt < 0 {
		return errors.New("analysis.history_points_in_prompt cannot be negative")
	}
	if c.Forecast.IntervalWidth <= 0 || c.Forecast.IntervalWidth >= 1 {
		return fmt.Errorf("forecast.interval_width must be in (0,1), got %.3f", c.Forecast.IntervalWidth)
	}
	if c.Forecast.ChangepointRange <= 0 || c.Forecast.ChangepointRange > 1 {
		return fmt.Errorf("forecast.changepoint_range must be in (0,1], got %.3f", c.Forecast.ChangepointRange)
	}
	if c.Forecast.Changepoints < 0 || c.Forecast.YearlyOrder < 0 || c.Forecast.WeeklyOrder < 0 || c.Forecast.DailyOrder < 0 {
		return errors.New("forecast changepoints and fourier orders cannot be negative")
	}
	if c.Forecast.ChangepointPrior <= 0 || c.Forecast.SeasonalityPrior <= 0 || c.Forecast.NoiseScale <= 0 {
		return errors.New("forecast prior scales and noise_scale must be positive")
	}

	switch c.Sentiment.Classifier {
	case "LEXICON":
	case "ONNX":
		if c.Sentiment.ONNX.ModelPath == "" || c.Sentiment.ONNX.VocabPath == "" {
			return errors.New("sentiment.onnx.model_path and vocab_path are required for the ONNX classifier")
		}
	default:
		return fmt.Errorf("invalid sentiment.classifier '%s': must be 'LEXICON' or 'ONNX'", c.Sentiment.Classifier)
	}
	if c.Sentiment.ONNX.MaxTokens < 8 {
		return fmt.Errorf("sentiment.onnx.max_tokens must be at least 8, got %d", c.Sentiment.ONNX.MaxTokens)
	}
	if c.Sentiment.InfluencerConcurrency < 1 {
		return fmt.Errorf("sentiment.influencer_concurrency must be at least 1, got %d", c.Sentiment.InfluencerConcurrency)
	}

	switch c.Market.Source {
	case "YAHOO":
		if c.Market.BaseURL == "" {
			return errors.New("market.base_url is required for the YAHOO source")
		}
	case "KITE":
		if c.Market.Exchange == "" {
			return errors.New("market.exchange is required for the KITE source")
		}
	case "STATIC":
	default:
		return fmt.Errorf("invalid market.source '%s': must be 'YAHOO', 'KITE', or 'STATIC'", c.Market.Source)
	}
	if c.Market.RequestsPerMinute < 1 {
		return fmt.Errorf("market.requests_per_minute must be at least 1, got %d", c.Market.RequestsPerMinute)
	}

	switch c.TextStore.Backend {
	case "MEMORY":
	case "SQLITE":
		if c.TextStore.SQLitePath == "" {
			return errors.New("text_store.sqlite_path is required for the SQLITE backend")
		}
	case "HTTP":
		if c.TextStore.BaseURL == "" {
			return errors.New("text_store.base_url is required for the HTTP backend")
		}
	case "SCRAPE":
		if c.TextStore.SeedFile == "" {
			return errors.New("text_store.seed_file is required for the SCRAPE backend")
		}
	default:
		return fmt.Errorf("invalid text_store.backend '%s': must be 'MEMORY', 'SQLITE', 'HTTP', or 'SCRAPE'", c.TextStore.Backend)
	}

	switch c.LLM.Provider {
	case "GEMINI", "CLAUDE", "OPENAI", "NONE":
	default:
		return fmt.Errorf("invalid llm.provider '%s': must be 'GEMINI', 'CLAUDE', 'OPENAI', or 'NONE'", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0-2, got %.2f", c.LLM.Temperature)
	}

	if c.Watch.HorizonDays < 1 || c.Watch.HorizonDays > 3650 {
		return fmt.Errorf("watch.horizon_days must be between 1-3650, got %d", c.Watch.HorizonDays)
	}

	if c.Journal.Enabled && c.Journal.Dir == "" {
		return errors.New("journal.dir is required when the journal is enabled")
	}
	if _, err := c.Journal.Location(); err != nil {
		return fmt.Errorf("invalid journal.timezone '%s': %w", c.Journal.Timezone, err)
	}
	if c.Journal.RetentionDays < 0 {
		return errors.New("journal.retention_days cannot be negative")
	}
	if c.Journal.DigestHour < 0 || c.Journal.DigestHour > 23 || c.Journal.DigestMinute < 0 || c.Journal.DigestMinute > 59 {
		return fmt.Errorf("journal digest time %02d:%02d is not a valid time of day", c.Journal.DigestHour, c.Journal.DigestMinute)
	}
	return nil
}

// LoadConfig reads .env, then the YAML file at path over the defaults, then
// INSIGHT_* environment overrides. A missing file leaves the defaults in place.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	c := Default()
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	if err := envconfig.Process(EnvPrefix, &c); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}
