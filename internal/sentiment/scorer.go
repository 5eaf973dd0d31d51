package sentiment

import (
	"context"
	"fmt"
	"strings"

	"stock-insight/internal/errs"
	"stock-insight/internal/interfaces"
)

// Weights of each estimator in the ensemble. They are fixed, not learned.
type Weights struct {
	Lexicon    float64
	Shallow    float64
	Classifier float64
}

// DefaultWeights favours the domain classifier
var DefaultWeights = Weights{Lexicon: 0.3, Shallow: 0.2, Classifier: 0.5}

// Scorer combines a lexicon estimator, a shallow estimator and a domain
// classifier into one ensemble score in [0, 1] per text. Safe for concurrent
// use when its estimators are.
type Scorer struct {
	lexicon    interfaces.PolarityEstimator
	shallow    interfaces.PolarityEstimator
	classifier interfaces.SentimentClassifier
	weights    Weights
}

// NewScorer builds a Scorer. The classifier is usually a *LazyClassifier owned by the caller.
func NewScorer(lexicon, shallow interfaces.PolarityEstimator, classifier interfaces.SentimentClassifier, w Weights) *Scorer {
	return &Scorer{lexicon: lexicon, shallow: shallow, classifier: classifier, weights: w}
}

// NewDefaultScorer wires the built-in estimators with DefaultWeights
func NewDefaultScorer(classifier interfaces.SentimentClassifier) *Scorer {
	if classifier == nil {
		classifier = NewFinancialClassifier()
	}
	return NewScorer(NewLexicon(), NewShallow(), classifier, DefaultWeights)
}

// Score returns the ensemble sentiment of text in [0, 1]
func (s *Scorer) Score(ctx context.Context, text string) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, errs.InvalidInput("sentiment.Score", "empty text")
	}

	lex, err := Normalize(s.lexicon.Polarity(text), -1, 1, 0, 1)
	if err != nil {
		return 0, err
	}
	shallow, err := Normalize(s.shallow.Polarity(text), -1, 1, 0, 1)
	if err != nil {
		return 0, err
	}
	polarity, err := s.classifier.Classify(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("classify: %w", err)
	}
	cls, err := Normalize(polarity, -1, 1, 0, 1)
	if err != nil {
		return 0, err
	}

	return s.weights.Lexicon*lex + s.weights.Shallow*shallow + s.weights.Classifier*cls, nil
}
