package sentiment

import (
	"math"
	"strings"
)

const (
	lexiconAlpha       = 15.0 // compound normalization constant
	lexiconBoost       = 0.293
	lexiconShoutBoost  = 0.733
	lexiconNegScalar   = -0.74
	lexiconExclaimStep = 0.292
	lexiconMaxExclaim  = 4
)

// Lexicon is a rule-based valence scorer tuned for short social-media posts.
// Word valences sit on a [-4, 4] scale and are adjusted for boosters,
// negation, capitalization, "but" contrast and exclamation marks before being
// squashed into a compound polarity in [-1, 1].
type Lexicon struct {
	valence  map[string]float64
	boosters map[string]float64
}

// NewLexicon returns a Lexicon over the built-in social and market vocabulary
func NewLexicon() *Lexicon {
	return &Lexicon{valence: lexiconValence, boosters: lexiconBoosters}
}

// Polarity returns the compound score in [-1, 1]; 0 when no scored word is present
func (l *Lexicon) Polarity(text string) float64 {
	toks := tokenize(text)
	if len(toks) == 0 {
		return 0
	}

	allShouted := true
	for _, t := range toks {
		if !t.shouted {
			allShouted = false
			break
		}
	}

	scores := make([]float64, len(toks))
	butAt := -1
	for i, t := range toks {
		if t.word == "but" && butAt < 0 {
			butAt = i
		}
		v, ok := l.valence[t.word]
		if !ok {
			continue
		}
		if t.shouted && !allShouted {
			v += math.Copysign(lexiconShoutBoost, v)
		}
		for back := 1; back <= 3 && i-back >= 0; back++ {
			prev := toks[i-back].word
			damp := 1 - 0.05*float64(back-1)
			if b, ok := l.boosters[prev]; ok {
				v += math.Copysign(b*damp, v)
			}
			if isNegation(prev) {
				v *= lexiconNegScalar
			}
		}
		scores[i] = v
	}

	sum := 0.0
	for i, s := range scores {
		switch {
		case butAt < 0:
		case i < butAt:
			s *= 0.5
		case i > butAt:
			s *= 1.5
		}
		sum += s
	}
	if sum == 0 {
		return 0
	}

	if n := min(strings.Count(text, "!"), lexiconMaxExclaim); n > 0 {
		sum += math.Copysign(float64(n)*lexiconExclaimStep, sum)
	}

	compound := sum / math.Sqrt(sum*sum+lexiconAlpha)
	return math.Max(-1, math.Min(1, compound))
}

var lexiconBoosters = map[string]float64{
	"absolutely": lexiconBoost, "amazingly": lexiconBoost, "completely": lexiconBoost,
	"deeply": lexiconBoost, "enormously": lexiconBoost, "extremely": lexiconBoost,
	"highly": lexiconBoost, "hugely": lexiconBoost, "incredibly": lexiconBoost,
	"massively": lexiconBoost, "really": lexiconBoost, "so": lexiconBoost,
	"totally": lexiconBoost, "truly": lexiconBoost, "very": lexiconBoost,
	"super": lexiconBoost, "most": lexiconBoost, "more": lexiconBoost,
	"barely": -lexiconBoost, "slightly": -lexiconBoost, "somewhat": -lexiconBoost,
	"marginally": -lexiconBoost, "kinda": -lexiconBoost, "less": -lexiconBoost,
	"little": -lexiconBoost, "partly": -lexiconBoost,
}

var lexiconValence = map[string]float64{
	// general
	"good": 1.9, "great": 3.1, "excellent": 2.7, "amazing": 2.8, "awesome": 3.1,
	"love": 3.2, "like": 1.5, "happy": 2.7, "best": 3.2, "better": 1.9,
	"nice": 1.8, "fantastic": 2.6, "wonderful": 2.7, "brilliant": 2.8,
	"impressive": 2.3, "solid": 1.6, "strong": 2.3, "win": 2.8, "winning": 2.4,
	"wins": 2.7, "success": 2.7, "successful": 2.8, "confident": 2.2,
	"optimistic": 2.3, "exciting": 2.2, "excited": 1.4, "promising": 1.7,
	"bad": -2.5, "terrible": -2.1, "awful": -2.0, "horrible": -2.5,
	"worst": -3.1, "worse": -2.1, "hate": -2.7, "poor": -2.1, "weak": -1.9,
	"sad": -2.1, "angry": -2.3, "disappointing": -2.2, "disappointed": -1.9,
	"fail": -2.5, "failed": -2.3, "failure": -2.3, "fear": -2.2, "scared": -1.9,
	"worried": -1.2, "worry": -1.9, "concern": -1.4, "concerned": -1.3,
	"risky": -0.8, "risk": -1.1, "problem": -1.7, "problems": -1.7,
	"trouble": -1.7, "ugly": -2.3, "pessimistic": -1.5, "doubt": -1.5,
	"lose": -1.3, "losing": -1.6, "lost": -1.3, "loss": -1.3, "losses": -1.7,

	// markets
	"bullish": 2.6, "bearish": -2.6, "rally": 2.0, "rallies": 2.0,
	"surge": 2.1, "surges": 2.1, "soar": 2.4, "soars": 2.4, "soaring": 2.4,
	"moon": 2.0, "mooning": 2.3, "breakout": 1.8, "beat": 1.6, "beats": 1.6,
	"upgrade": 1.9, "upgraded": 1.9, "outperform": 2.0, "buy": 1.2,
	"gain": 1.9, "gains": 1.9, "profit": 1.8, "profitable": 2.0, "growth": 1.7,
	"record": 1.2, "undervalued": 1.6, "dividend": 1.0, "recovery": 1.6,
	"crash": -3.0, "crashes": -3.0, "plunge": -2.6, "plunges": -2.6,
	"dump": -2.2, "dumping": -2.2, "tank": -2.3, "tanks": -2.3, "tanking": -2.5,
	"slump": -2.2, "selloff": -2.4, "sell": -1.2, "downgrade": -2.0,
	"downgraded": -2.0, "underperform": -2.0, "miss": -1.5, "missed": -1.6,
	"overvalued": -1.6, "bubble": -1.8, "bankrupt": -3.2, "bankruptcy": -3.2,
	"fraud": -3.3, "scam": -3.1, "lawsuit": -1.8, "recession": -2.4,
	"decline": -1.6, "declines": -1.6, "drop": -1.4, "drops": -1.4,
	"layoffs": -2.1, "debt": -1.2, "volatile": -0.9, "dilution": -1.5,
}
