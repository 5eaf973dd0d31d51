package sentiment

import "math"

// Shallow is a pattern-averaging polarity estimator. Each known word carries a
// polarity in [-1, 1]; intensifiers scale the next scored word and negation
// flips and halves it. The result is the mean over scored words.
type Shallow struct {
	polarity     map[string]float64
	intensifiers map[string]float64
}

// NewShallow returns a Shallow estimator over the built-in adjective lexicon
func NewShallow() *Shallow {
	return &Shallow{polarity: shallowPolarity, intensifiers: shallowIntensifiers}
}

// Polarity returns the mean polarity in [-1, 1]; 0 when no scored word is present
func (s *Shallow) Polarity(text string) float64 {
	ws := words(text)

	var sum float64
	var n int
	scale, negate := 1.0, false
	for _, w := range ws {
		if m, ok := s.intensifiers[w]; ok {
			scale *= m
			continue
		}
		if isNegation(w) {
			negate = !negate
			continue
		}
		p, ok := s.polarity[w]
		if !ok {
			continue
		}
		p *= scale
		if negate {
			p *= -0.5
		}
		sum += math.Max(-1, math.Min(1, p))
		n++
		scale, negate = 1.0, false
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

var shallowIntensifiers = map[string]float64{
	"very": 1.3, "really": 1.3, "extremely": 1.5, "incredibly": 1.4,
	"super": 1.3, "highly": 1.3, "so": 1.2, "too": 1.2, "quite": 1.1,
	"pretty": 1.1, "somewhat": 0.7, "slightly": 0.6, "fairly": 0.9,
	"rather": 0.9, "little": 0.7,
}

var shallowPolarity = map[string]float64{
	"good": 0.7, "great": 0.8, "excellent": 1.0, "amazing": 0.6, "awesome": 1.0,
	"best": 1.0, "better": 0.5, "nice": 0.6, "fantastic": 0.4, "wonderful": 1.0,
	"brilliant": 0.9, "impressive": 1.0, "positive": 0.2, "strong": 0.4,
	"solid": 0.2, "happy": 0.8, "perfect": 1.0, "fine": 0.4, "cheap": 0.4,
	"profitable": 0.5, "bullish": 0.6, "promising": 0.6, "healthy": 0.5,
	"attractive": 0.6, "successful": 0.8, "optimistic": 0.6, "confident": 0.5,
	"high": 0.16, "higher": 0.25, "up": 0.1, "new": 0.14, "innovative": 0.5,
	"bad": -0.7, "terrible": -1.0, "awful": -1.0, "horrible": -1.0,
	"worst": -1.0, "worse": -0.4, "poor": -0.4, "weak": -0.375, "negative": -0.3,
	"sad": -0.5, "disappointing": -0.6, "disappointed": -0.75, "risky": -0.5,
	"expensive": -0.5, "overvalued": -0.5, "bearish": -0.6, "ugly": -0.7,
	"dangerous": -0.6, "uncertain": -0.2, "volatile": -0.3, "low": -0.1,
	"lower": -0.2, "down": -0.15, "wrong": -0.5, "stupid": -0.8, "dead": -0.2,
	"broke": -0.4, "bankrupt": -0.8, "crazy": -0.6, "unprofitable": -0.5,
}
