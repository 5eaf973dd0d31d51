// Package fusion turns a forecast score and a sentiment score into a final
// score, a recommendation and a risk tier.
package fusion

import (
	"math"

	"stock-insight/internal/round"
	"stock-insight/internal/types"
)

// Weights of the forecast and sentiment scores in the final score
const (
	StockWeight     = 0.4
	SentimentWeight = 0.6
)

// Recommendation thresholds; both are exclusive so the edges map to Hold
const (
	BuyAbove  = 0.7
	SellBelow = 0.3
)

// Risk thresholds
const (
	HighRiskMove   = 10.0 // |pct change| above this is High
	MediumRiskMove = 5.0  // |pct change| above this is Medium
	HighRiskLow    = 0.4  // final score below this is High
	HighRiskHigh   = 0.9  // final score above this is High
)

// FinalScore blends the two scores and rounds to four places
func FinalScore(stockScore, tweetScore float64) float64 {
	return round.To(StockWeight*stockScore+SentimentWeight*tweetScore, round.ScorePlaces)
}

func Recommend(finalScore float64) types.Recommendation {
	switch {
	case finalScore > BuyAbove:
		return types.Buy
	case finalScore < SellBelow:
		return types.Sell
	default:
		return types.Hold
	}
}

// AssessRisk checks the High conditions before Medium
func AssessRisk(pctChange, finalScore float64) types.Risk {
	move := math.Abs(pctChange)
	switch {
	case move > HighRiskMove || finalScore < HighRiskLow || finalScore > HighRiskHigh:
		return types.RiskHigh
	case move > MediumRiskMove:
		return types.RiskMedium
	default:
		return types.RiskLow
	}
}

// Fuse applies FinalScore, Recommend and AssessRisk
func Fuse(stockScore, tweetScore, pctChange float64) types.Signal {
	final := FinalScore(stockScore, tweetScore)
	return types.Signal{
		StockScore:     stockScore,
		TweetScore:     tweetScore,
		FinalScore:     final,
		Recommendation: Recommend(final),
		Risk:           AssessRisk(pctChange, final),
	}
}
