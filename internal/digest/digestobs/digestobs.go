package digestobs

import (
	"context"
	"time"

	"stock-insight/internal/interfaces"
	"stock-insight/internal/logger"
	"stock-insight/internal/trace"
)

type observableSummarizer struct {
	summarizer interfaces.DigestSummarizer
}

var _ interfaces.DigestSummarizer = (*observableSummarizer)(nil)

func Wrap(summarizer interfaces.DigestSummarizer) interfaces.DigestSummarizer {
	return &observableSummarizer{summarizer: summarizer}
}

func (ds *observableSummarizer) SummarizeDay(t time.Time) (string, error) {
	ctx, span := trace.StartSpan(context.Background(), "digest.SummarizeDay")
	defer span.End()

	day := t.Format("2006-01-02")
	csvPath, err := ds.summarizer.SummarizeDay(t)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Digest generation failed", err, "date", day)
		return "", err
	}
	if csvPath == "" {
		logger.InfoSkip(ctx, 1, "No signals journaled for digest", "date", day)
		return "", nil
	}

	logger.InfoSkip(ctx, 1, "Digest generated", "date", day, "csv_path", csvPath)
	return csvPath, nil
}

func (ds *observableSummarizer) SummarizeToday() (string, error) {
	ctx, span := trace.StartSpan(context.Background(), "digest.SummarizeToday")
	defer span.End()

	csvPath, err := ds.summarizer.SummarizeToday()
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Today's digest generation failed", err)
		return "", err
	}
	if csvPath != "" {
		logger.InfoSkip(ctx, 1, "Today's digest generated", "csv_path", csvPath)
	}
	return csvPath, nil
}

func (ds *observableSummarizer) ShouldRunNow() (bool, string) {
	ctx, span := trace.StartSpan(context.Background(), "digest.ShouldRunNow")
	defer span.End()

	shouldRun, csvPath := ds.summarizer.ShouldRunNow()
	logger.DebugSkip(ctx, 1, "Digest check completed", "should_run", shouldRun, "csv_path", csvPath)
	return shouldRun, csvPath
}
