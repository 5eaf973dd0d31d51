package noop

import (
	"context"

	"stock-insight/internal/interfaces"
	"stock-insight/internal/logger"
)

// Narrator is the fallback used when no LLM provider is configured.
// It returns an empty explanation.
type Narrator struct{}

var _ interfaces.NarrativeGenerator = (*Narrator)(nil)

func NewNarrator() *Narrator {
	return &Narrator{}
}

func (n *Narrator) Explain(ctx context.Context, prompt string) (string, error) {
	logger.Debug(ctx, "Noop narrator called - explanation left empty", "prompt_bytes", len(prompt))
	return "", nil
}
