package interfaces

import "context"

// SentimentClassifier is a domain-tuned model returning polarity in [-1, 1].
// Implementations must be safe for concurrent use.
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) (float64, error)
}

// PolarityEstimator is a cheap in-process estimator returning polarity in [-1, 1]
type PolarityEstimator interface {
	Polarity(text string) float64
}
