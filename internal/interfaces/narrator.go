package interfaces

import "context"

// NarrativeGenerator turns a structured prompt into a short natural-language explanation.
// Implementations are best effort; callers must tolerate errors.
type NarrativeGenerator interface {
	Explain(ctx context.Context, prompt string) (string, error)
}
