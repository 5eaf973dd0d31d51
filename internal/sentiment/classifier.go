package sentiment

import (
	"context"
	"math"
	"sync"

	"stock-insight/internal/interfaces"
)

// FinancialClassifier scores text against the Loughran-McDonald financial
// word lists. It stands in for a fine-tuned transformer when no ONNX model is
// configured and returns P(positive) - P(negative) over a three-way softmax.
type FinancialClassifier struct {
	positive    map[string]bool
	negative    map[string]bool
	uncertainty map[string]bool
}

var _ interfaces.SentimentClassifier = (*FinancialClassifier)(nil)

func NewFinancialClassifier() *FinancialClassifier {
	return &FinancialClassifier{
		positive:    toSet(lmPositive),
		negative:    toSet(lmNegative),
		uncertainty: toSet(lmUncertainty),
	}
}

// Classify returns a polarity in [-1, 1]
func (c *FinancialClassifier) Classify(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var pos, neg, unc float64
	negated := 0
	for _, w := range words(text) {
		if isNegation(w) {
			negated = 3
			continue
		}
		switch {
		case c.positive[w] && negated > 0:
			neg++
		case c.positive[w]:
			pos++
		case c.negative[w] && negated > 0:
			pos += 0.5
		case c.negative[w]:
			neg++
		case c.uncertainty[w]:
			unc++
		}
		if negated > 0 {
			negated--
		}
	}

	// Logits: neutral grows with hedging language, polar classes with hits
	pPos, pNeg := softmax3(1.2*pos, 1.2*neg, 0.8+0.5*unc)
	return pPos - pNeg, nil
}

func softmax3(pos, neg, neutral float64) (pPos, pNeg float64) {
	m := math.Max(pos, math.Max(neg, neutral))
	ep, en, ez := math.Exp(pos-m), math.Exp(neg-m), math.Exp(neutral-m)
	total := ep + en + ez
	return ep / total, en / total
}

func toSet(ws []string) map[string]bool {
	m := make(map[string]bool, len(ws))
	for _, w := range ws {
		m[w] = true
	}
	return m
}

// LazyClassifier loads a heavyweight classifier on first use and shares it
// across goroutines. A failed load is remembered and returned on every call.
type LazyClassifier struct {
	load func() (interfaces.SentimentClassifier, error)

	once sync.Once
	c    interfaces.SentimentClassifier
	err  error
}

var _ interfaces.SentimentClassifier = (*LazyClassifier)(nil)

func NewLazyClassifier(load func() (interfaces.SentimentClassifier, error)) *LazyClassifier {
	return &LazyClassifier{load: load}
}

func (l *LazyClassifier) get() (interfaces.SentimentClassifier, error) {
	l.once.Do(func() {
		l.c, l.err = l.load()
	})
	return l.c, l.err
}

// Classify loads the underlying classifier if needed and delegates to it
func (l *LazyClassifier) Classify(ctx context.Context, text string) (float64, error) {
	c, err := l.get()
	if err != nil {
		return 0, err
	}
	return c.Classify(ctx, text)
}

// Loaded reports whether the underlying classifier has been initialized successfully
func (l *LazyClassifier) Loaded() bool {
	c, err := l.get()
	return err == nil && c != nil
}

// Word lists based on the Loughran-McDonald financial sentiment dictionaries

var lmPositive = []string{
	"achieve", "achieved", "attain", "beat", "beats", "benefit", "better",
	"boost", "bullish", "competitive", "delight", "enhance", "excellent",
	"exceptional", "exceeded", "extraordinary", "favorable", "gain", "gains",
	"good", "great", "grew", "growth", "improve", "improved", "improvement",
	"innovation", "innovative", "leader", "leading", "opportunity", "optimal",
	"optimistic", "outperform", "positive", "profitable", "progress",
	"prosper", "rally", "record", "remarkable", "robust", "solid", "strength",
	"strong", "succeed", "success", "successful", "superior", "surpass",
	"tremendous", "upbeat", "upgrade", "valuable", "winning",
}

var lmNegative = []string{
	"abandon", "adverse", "bearish", "challenge", "challenging", "concern",
	"concerns", "crash", "crisis", "damage", "decline", "decrease", "deficit",
	"deteriorate", "difficult", "difficulty", "disappoint", "disappointing",
	"disadvantage", "downgrade", "downturn", "erode", "fail", "failure",
	"falling", "fear", "fraud", "headwind", "impair", "impairment",
	"inability", "inadequate", "ineffective", "lawsuit", "loss", "losses",
	"miss", "missed", "negative", "obstacle", "plunge", "poor", "problem",
	"recession", "restructuring", "slowdown", "slump", "underperform",
	"unfavorable", "unprofitable", "weak", "weakness", "worse", "worsen",
	"worst",
}

var lmUncertainty = []string{
	"almost", "anticipate", "appear", "approximately", "assume", "believe",
	"could", "depend", "depending", "estimate", "maybe", "may", "might",
	"pending", "perhaps", "possible", "possibly", "predict", "somewhat",
	"uncertain", "uncertainty", "unclear", "variable", "volatile",
	"volatility",
}
