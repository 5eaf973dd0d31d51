package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"stock-insight/internal/errs"
	"stock-insight/internal/logger"
	"stock-insight/internal/types"
)

const usage = `Usage: insight <command> [flags]

Commands:
  analyze   forecast, score and explain one ticker
  watch     analyze the configured tickers on a cron schedule
  seed      import a companies YAML file into the SQLite text store

Run 'insight <command> -h' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := initializeSystem(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer shutdownSystem(context.Background())

	var err error
	switch os.Args[1] {
	case "analyze":
		err = runAnalyze(os.Args[2:])
	case "watch":
		err = runWatch(os.Args[2:])
	case "seed":
		err = runSeed(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			logger.ErrorWithErr(context.Background(), "Command failed", err,
				"command", os.Args[1], "kind", errs.KindName(err), "exit_code", exitCode(err))
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		shutdownSystem(context.Background())
		os.Exit(exitCode(err))
	}
}

// exitCode maps error kinds to process exit codes
func exitCode(err error) int {
	switch {
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errs.ErrInvalidInput):
		return 2
	case errors.Is(err, errs.ErrNoData):
		return 3
	case errors.Is(err, errs.ErrUpstream):
		return 4
	default:
		return 1
	}
}

func runAnalyze(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "path to config file")
	ticker := fs.String("ticker", "", "ticker symbol to analyze (required)")
	days := fs.Int("days", 0, "forecast horizon in days (default analysis.horizon_days)")
	format := fs.String("format", "json", "output format: json or text")
	noExplain := fs.Bool("no-explain", false, "skip the LLM explanation")
	outputFile := fs.String("output", "", "save the result to a file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*ticker) == "" {
		fs.Usage()
		return errs.InvalidInput("insight.analyze", "-ticker is required")
	}
	if *format != "json" && *format != "text" {
		return errs.InvalidInput("insight.analyze", "unknown format %q", *format)
	}

	ctx := context.Background()
	cfg, err := loadConfig(ctx, *configPath)
	if err != nil {
		return err
	}
	if *noExplain {
		cfg.Analysis.Explain = false
	}
	horizon := *days
	if horizon == 0 {
		horizon = cfg.Analysis.HorizonDays
	}

	prices, err := initializePrices(ctx, cfg)
	if err != nil {
		return err
	}
	texts, closeTexts, err := initializeTextStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeTexts()
	analyzer := initializeAnalyzer(ctx, cfg, prices, texts)

	if cfg.Analysis.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Analysis.FetchTimeout+cfg.Analysis.NarrationTimeout)
		defer cancel()
	}
	result, err := analyzer.Analyze(ctx, *ticker, horizon)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if *outputFile != "" {
		f, err := os.Create(*outputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if *format == "text" {
		return writeText(out, result)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// writeText prints a short human-readable report without the series
func writeText(w io.Writer, r *types.AnalysisResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticker:          %s\n", r.Ticker)
	fmt.Fprintf(&b, "Horizon:         %d days\n", r.HorizonDays)
	fmt.Fprintf(&b, "Last price:      %.2f\n", r.LastPrice)
	fmt.Fprintf(&b, "Predicted price: %.2f (%+.3f%%)\n", r.PredictedPrice, r.PctChange)
	fmt.Fprintf(&b, "Stock score:     %.4f\n", r.StockScore)
	fmt.Fprintf(&b, "Tweet score:     %.4f", r.TweetScore)
	if r.SentimentFallback != "" {
		fmt.Fprintf(&b, " (fallback: %s)", r.SentimentFallback)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Final score:     %.4f\n", r.FinalScore)
	fmt.Fprintf(&b, "Recommendation:  %s\n", r.Recommendation)
	fmt.Fprintf(&b, "Risk:            %s\n", r.Risk)
	fmt.Fprintf(&b, "Accuracy:        MAE %.4f  RMSE %.4f  MAPE %.2f%%\n", r.Metrics.MAE, r.Metrics.RMSE, r.Metrics.MAPE)
	if r.Explanation != "" {
		fmt.Fprintf(&b, "\n%s\n", r.Explanation)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func runSeed(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "path to config file")
	file := fs.String("file", "", "companies YAML file (default text_store.seed_file)")
	dbPath := fs.String("db", "", "SQLite database path (default text_store.sqlite_path)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	cfg, err := loadConfig(ctx, *configPath)
	if err != nil {
		return err
	}
	if *file == "" {
		*file = cfg.TextStore.SeedFile
	}
	if *dbPath == "" {
		*dbPath = cfg.TextStore.SQLitePath
	}
	return seedSQLite(ctx, *file, *dbPath)
}
