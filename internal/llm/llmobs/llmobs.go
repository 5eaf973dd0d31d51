package llmobs

import (
	"context"
	"time"

	"stock-insight/internal/interfaces"
	"stock-insight/internal/logger"
	"stock-insight/internal/metrics"
	"stock-insight/internal/trace"
)

// observableNarrator wraps a NarrativeGenerator with observability (logging, tracing & metrics)
type observableNarrator struct {
	narrator interfaces.NarrativeGenerator
	provider string
}

// Compile-time interface check
var _ interfaces.NarrativeGenerator = (*observableNarrator)(nil)

// Wrap wraps a narrator with observability middleware
func Wrap(narrator interfaces.NarrativeGenerator, provider string) interfaces.NarrativeGenerator {
	return &observableNarrator{
		narrator: narrator,
		provider: provider,
	}
}

func (on *observableNarrator) Explain(ctx context.Context, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Explain")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Requesting explanation",
		"provider", on.provider,
		"prompt_bytes", len(prompt),
	)

	start := time.Now()
	text, err := on.narrator.Explain(ctx, prompt)
	metrics.RecordNarration(time.Since(start), err)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to generate explanation", err,
			"provider", on.provider,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	logger.InfoSkip(ctx, 1, "Explanation received",
		"provider", on.provider,
		"chars", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
