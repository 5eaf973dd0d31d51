package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"stock-insight/internal/errs"
	"stock-insight/internal/interfaces"
	"stock-insight/internal/journal"
	"stock-insight/internal/logger"
	"stock-insight/internal/metrics"
	"stock-insight/internal/store"
)

// cronLogger adapts the structured logger to cron.Logger
type cronLogger struct {
	ctx context.Context
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug(l.ctx, "cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.ErrorWithErr(l.ctx, "cron: "+msg, err, keysAndValues...)
}

// watcher analyzes a fixed ticker list on every scheduled run
type watcher struct {
	analyzer interfaces.Analyzer
	journal  *journal.Journal
	tickers  []string
	horizon  int
	timeout  time.Duration
}

// runOnce analyzes every ticker in turn. One ticker failing does not stop the rest.
func (w *watcher) runOnce(ctx context.Context) (ok, failed int) {
	for _, ticker := range w.tickers {
		if ctx.Err() != nil {
			break
		}
		tctx := ctx
		var cancel context.CancelFunc = func() {}
		if w.timeout > 0 {
			tctx, cancel = context.WithTimeout(ctx, w.timeout)
		}
		result, err := w.analyzer.Analyze(tctx, ticker, w.horizon)
		cancel()
		if err != nil {
			failed++
			logger.Warn(ctx, "Watch analysis failed", "ticker", ticker, "kind", errs.KindName(err), "error", err)
			continue
		}
		ok++
		if w.journal != nil {
			if err := w.journal.Append(result); err != nil {
				logger.Warn(ctx, "Failed to journal signal", "ticker", ticker, "error", err)
			}
		}
	}
	logger.Info(ctx, "Watch run completed", "ok", ok, "failed", failed)
	return ok, failed
}

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "path to config file")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address (default metrics.addr)")
	runNow := fs.Bool("run-now", false, "run once immediately before waiting for the schedule")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig(ctx, *configPath)
	if err != nil {
		return err
	}
	if len(cfg.Watch.Tickers) == 0 {
		return errs.InvalidInput("insight.watch", "watch.tickers is empty")
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
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

	j, summarizer, err := initializeJournal(ctx, cfg)
	if err != nil {
		return err
	}

	w := &watcher{
		analyzer: initializeAnalyzer(ctx, cfg, prices, texts),
		journal:  j,
		tickers:  cfg.Watch.Tickers,
		horizon:  cfg.Watch.HorizonDays,
		timeout:  cfg.Analysis.FetchTimeout + cfg.Analysis.NarrationTimeout,
	}

	srv := startMetricsServer(ctx, cfg)

	c, job, err := newScheduler(ctx, cfg, func() { w.runOnce(ctx) })
	if err != nil {
		return err
	}
	c.Start()
	logger.Info(ctx, "Watch started", "schedule", cfg.Watch.Schedule, "tickers", cfg.Watch.Tickers)

	var immediate sync.WaitGroup
	if *runNow {
		runImmediately(&immediate, job)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	digestTick := time.NewTicker(time.Minute)
	defer digestTick.Stop()

	for {
		select {
		case <-digestTick.C:
			if summarizer == nil {
				continue
			}
			if run, _ := summarizer.ShouldRunNow(); run {
				_, _ = summarizer.SummarizeToday()
			}
		case sig := <-sigc:
			logger.Info(ctx, "Shutting down...", "signal", sig.String())
			cancel()
			stopWatch(ctx, c, &immediate, summarizer)
			if srv != nil {
				shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
				defer done()
				_ = srv.Shutdown(shutdownCtx)
			}
			return nil
		}
	}
}

// runImmediately runs the scheduled job once outside the schedule. job must be
// the chain-wrapped entry so an overlapping tick is skipped.
func runImmediately(wg *sync.WaitGroup, job cron.Job) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		job.Run()
	}()
}

// stopWatch waits for scheduled and immediate runs to finish, then writes the day's digest
func stopWatch(ctx context.Context, c *cron.Cron, immediate *sync.WaitGroup, summarizer interfaces.DigestSummarizer) {
	<-c.Stop().Done()
	immediate.Wait()
	if summarizer == nil {
		return
	}
	if _, err := summarizer.SummarizeToday(); err != nil {
		logger.Warn(ctx, "Final digest failed", "error", err)
	}
}

// newScheduler registers job on the watch schedule and returns the wrapped entry
// job. Six-field specs carry seconds.
func newScheduler(ctx context.Context, cfg *store.Config, job func()) (*cron.Cron, cron.Job, error) {
	loc, err := cfg.Journal.Location()
	if err != nil {
		return nil, nil, err
	}
	cl := cronLogger{ctx: ctx}
	c := cron.New(
		cron.WithParser(cron.NewParser(cron.SecondOptional|cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	id, err := c.AddFunc(cfg.Watch.Schedule, job)
	if err != nil {
		return nil, nil, errs.InvalidInput("insight.watch", "invalid watch.schedule %q: %v", cfg.Watch.Schedule, err)
	}
	return c, c.Entry(id).WrappedJob, nil
}

// startMetricsServer serves /metrics when an address is configured
func startMetricsServer(ctx context.Context, cfg *store.Config) *http.Server {
	if cfg.Metrics.Addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info(ctx, "Metrics server listening", "addr", cfg.Metrics.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorWithErr(ctx, "Metrics server failed", err)
		}
	}()
	return srv
}
