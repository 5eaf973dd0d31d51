package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"stock-insight/internal/analysis"
	"stock-insight/internal/analysis/analysisobs"
	"stock-insight/internal/api"
	"stock-insight/internal/digest"
	"stock-insight/internal/digest/digestobs"
	"stock-insight/internal/forecast"
	"stock-insight/internal/interfaces"
	"stock-insight/internal/journal"
	"stock-insight/internal/llm/claude"
	"stock-insight/internal/llm/gemini"
	"stock-insight/internal/llm/llmobs"
	"stock-insight/internal/llm/noop"
	"stock-insight/internal/llm/openai"
	"stock-insight/internal/logger"
	"stock-insight/internal/market"
	"stock-insight/internal/market/marketobs"
	"stock-insight/internal/sentiment"
	"stock-insight/internal/sentiment/finbert"
	"stock-insight/internal/sentiment/sentimentobs"
	"stock-insight/internal/store"
	"stock-insight/internal/textstore"
	"stock-insight/internal/trace"
)

// initializeSystem initializes logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// shutdownSystem flushes the tracer and logger
func shutdownSystem(ctx context.Context) {
	_ = trace.Shutdown(ctx)
	_ = logger.Shutdown(ctx)
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// initializePrices returns the price history provider for cfg.Market.Source with observability
func initializePrices(ctx context.Context, cfg *store.Config) (interfaces.PriceHistoryProvider, error) {
	prices, err := newPriceProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return marketobs.Wrap(prices, cfg.Market.Source), nil
}

func newPriceProvider(ctx context.Context, cfg *store.Config) (interfaces.PriceHistoryProvider, error) {
	switch cfg.Market.Source {
	case "STATIC":
		logger.Info(ctx, "Using STATIC synthetic price history", "seed", cfg.Market.StaticSeed)
		return market.NewStatic(cfg.Market.StaticSeed), nil
	case "KITE":
		kite, err := market.NewKite(market.KiteParams{Exchange: cfg.Market.Exchange})
		if err != nil {
			return nil, err
		}
		logger.Info(ctx, "Using KITE price history", "exchange", cfg.Market.Exchange)
		return kite, nil
	}

	client := api.NewClient(
		api.WithBaseURL(cfg.Market.BaseURL),
		api.WithHeaders(api.YahooFinanceHeaders()),
		api.WithRequestsPerMinute(cfg.Market.RequestsPerMinute),
		api.WithTimeout(cfg.Market.Timeout),
		api.WithLogging(logger.IsDebugEnabled()),
	)
	logger.Info(ctx, "Using YAHOO price history", "base_url", cfg.Market.BaseURL)
	return market.NewYahoo(client), nil
}

// initializeTextStore opens the configured text store and wraps it with
// caching and observability. The returned closer releases backend resources.
func initializeTextStore(ctx context.Context, cfg *store.Config) (interfaces.SentimentTextStore, func() error, error) {
	tc := cfg.TextStore
	closer := func() error { return nil }

	var ts interfaces.SentimentTextStore
	switch tc.Backend {
	case "SQLITE":
		db, err := textstore.OpenSQLite(ctx, tc.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open text store: %w", err)
		}
		ts, closer = db, db.Close
	case "HTTP":
		client := api.NewClient(
			api.WithBaseURL(tc.BaseURL),
			api.WithHeaders(api.JSONHeaders()),
			api.WithTimeout(cfg.Market.Timeout),
			api.WithLogging(logger.IsDebugEnabled()),
		)
		ts = textstore.NewHTTP(client, tc.CacheTTL)
	case "SCRAPE":
		seed, err := textstore.LoadSeed(tc.SeedFile)
		if err != nil {
			return nil, nil, fmt.Errorf("load seed: %w", err)
		}
		ts = textstore.NewScrape(seed, tc.CacheTTL,
			textstore.WithScrapeTimeout(tc.ScrapeTimeout),
			textstore.WithUserAgent(tc.UserAgent))
	default:
		mem := textstore.NewMemory()
		if tc.SeedFile != "" {
			seed, err := textstore.LoadSeed(tc.SeedFile)
			switch {
			case err == nil:
				mem = textstore.NewMemoryFromSeed(seed)
			case os.IsNotExist(err):
				logger.Warn(ctx, "Seed file not found, text store starts empty", "path", tc.SeedFile)
			default:
				return nil, nil, fmt.Errorf("load seed: %w", err)
			}
		}
		ts = mem
	}

	if (tc.Backend == "SQLITE" || tc.Backend == "HTTP") && tc.CacheTTL > 0 {
		ts = textstore.NewCached(ts, tc.CacheTTL)
	}
	logger.Info(ctx, "Text store ready", "backend", tc.Backend, "cache_ttl", tc.CacheTTL.String())

	return sentimentobs.Wrap(ts, tc.Backend), closer, nil
}

// initializeClassifier returns the domain classifier used by the ensemble
func initializeClassifier(ctx context.Context, cfg *store.Config) interfaces.SentimentClassifier {
	if cfg.Sentiment.Classifier != "ONNX" {
		return sentiment.NewFinancialClassifier()
	}

	onnx := cfg.Sentiment.ONNX
	logger.Info(ctx, "Using ONNX FinBERT classifier", "model_path", onnx.ModelPath)
	return sentiment.NewLazyClassifier(func() (interfaces.SentimentClassifier, error) {
		return finbert.Load(finbert.Config{
			ModelPath:   onnx.ModelPath,
			VocabPath:   onnx.VocabPath,
			LibraryPath: onnx.LibraryPath,
			MaxTokens:   onnx.MaxTokens,
		})
	})
}

// initializeNarrator returns the configured narrator with observability,
// or nil when explanations are disabled
func initializeNarrator(ctx context.Context, cfg *store.Config) interfaces.NarrativeGenerator {
	if !cfg.Analysis.Explain {
		logger.Info(ctx, "Explanations disabled")
		return nil
	}

	var narrator interfaces.NarrativeGenerator
	switch cfg.LLM.Provider {
	case "GEMINI":
		narrator = gemini.NewNarrator(cfg.LLM)
	case "CLAUDE":
		narrator = claude.NewNarrator(cfg.LLM)
	case "OPENAI":
		narrator = openai.NewNarrator(cfg.LLM)
	default:
		narrator = noop.NewNarrator()
		logger.Warn(ctx, "No LLM provider configured - using Noop narrator (empty explanations)")
	}

	return llmobs.Wrap(narrator, cfg.LLM.Provider)
}

// initializeAnalyzer wires the forecast and sentiment branches into the orchestrator
func initializeAnalyzer(ctx context.Context, cfg *store.Config, prices interfaces.PriceHistoryProvider, texts interfaces.SentimentTextStore) interfaces.Analyzer {
	engine := forecast.NewEngine(prices, forecast.ParamsFromConfig(cfg.Forecast),
		forecast.WithLookbackYears(cfg.Analysis.LookbackYears))

	scorer := sentiment.NewScorer(sentiment.NewLexicon(), sentiment.NewShallow(), initializeClassifier(ctx, cfg),
		sentiment.DefaultWeights)
	agg := sentimentobs.WrapAggregator(sentiment.NewAggregator(texts, scorer,
		sentiment.WithConcurrency(cfg.Sentiment.InfluencerConcurrency)))

	opts := []analysis.Option{
		analysis.WithNarrationTimeout(cfg.Analysis.NarrationTimeout),
		analysis.WithHistoryPoints(cfg.Analysis.HistoryPointsInPrompt),
	}
	if narrator := initializeNarrator(ctx, cfg); narrator != nil {
		opts = append(opts, analysis.WithNarrator(narrator))
	}

	return analysisobs.Wrap(analysis.New(engine, agg, opts...))
}

// initializeJournal returns the signal journal and its digest summarizer,
// or nils when the journal is disabled
func initializeJournal(ctx context.Context, cfg *store.Config) (*journal.Journal, interfaces.DigestSummarizer, error) {
	jc := cfg.Journal
	if !jc.Enabled {
		return nil, nil, nil
	}
	loc, err := jc.Location()
	if err != nil {
		return nil, nil, err
	}

	j := journal.New(jc.Dir, journal.WithLocation(loc))
	if n, err := j.CompressOlder(jc.RetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old journal files", "error", err)
	} else if n > 0 {
		logger.Info(ctx, "Compressed old journal files", "count", n)
	}

	summarizer := digest.NewSummarizer(j,
		digest.WithLocation(loc),
		digest.WithCutoff(jc.DigestHour, jc.DigestMinute))
	return j, digestobs.Wrap(summarizer), nil
}
