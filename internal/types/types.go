package types

import "time"

// PricePoint is one daily close
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// ForecastPoint is one row of the combined historical + forecast series.
// Actual is nil for dates beyond the last historical close.
type ForecastPoint struct {
	Date      time.Time `json:"ds"`
	Actual    *float64  `json:"actual"`
	Predicted float64   `json:"predicted"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
}

// HasActual reports whether the point is historical
func (p ForecastPoint) HasActual() bool { return p.Actual != nil }

type AccuracyMetrics struct {
	MAE  float64 `json:"MAE"`
	RMSE float64 `json:"RMSE"`
	MAPE float64 `json:"MAPE"`
}

type ForecastResult struct {
	Ticker           string          `json:"ticker"`
	LastPrice        float64         `json:"last_price"`
	PredictedPrice   float64         `json:"predicted_price"`
	PctChange        float64         `json:"pct_change"`
	DirectionalScore float64         `json:"directional_score"`
	Metrics          AccuracyMetrics `json:"metrics"`
	Series           []ForecastPoint `json:"data"`
}

// DefaultAuthority is assumed for influencers without a recorded authority score
const DefaultAuthority = 0.5

// Influencer is a tracked author whose texts feed company sentiment
type Influencer struct {
	Name      string   `json:"name" yaml:"name"`
	Authority *float64 `json:"authority_score,omitempty" yaml:"authority_score,omitempty"`
}

// AuthorityScore returns the recorded authority or DefaultAuthority when unknown
func (i Influencer) AuthorityScore() float64 {
	if i.Authority == nil {
		return DefaultAuthority
	}
	return *i.Authority
}

// InfluencerSentiment is the mean ensemble score over one influencer's texts
type InfluencerSentiment struct {
	Name      string  `json:"name"`
	Authority float64 `json:"authority_score"`
	Score     float64 `json:"score"`
	Texts     int     `json:"texts"`
}

// Sentiment fallback reasons
const (
	FallbackNone           = ""
	FallbackUnknownCompany = "unknown_company"
	FallbackNoInfluencers  = "no_influencers"
	FallbackNoTexts        = "no_texts"
	FallbackZeroAuthority  = "zero_authority"
)

// CompanySentiment is the authority-weighted sentiment for one company
type CompanySentiment struct {
	Ticker       string                `json:"ticker"`
	Score        float64               `json:"score"`
	Fallback     string                `json:"fallback,omitempty"`
	Contributors []InfluencerSentiment `json:"contributors,omitempty"`
}

type Recommendation string

const (
	Buy  Recommendation = "Buy"
	Hold Recommendation = "Hold"
	Sell Recommendation = "Sell"
)

type Risk string

const (
	RiskLow    Risk = "Low"
	RiskMedium Risk = "Medium"
	RiskHigh   Risk = "High"
)

// Signal is the fused decision derived from forecast and sentiment scores
type Signal struct {
	StockScore     float64        `json:"stock_score"`
	TweetScore     float64        `json:"tweet_score"`
	FinalScore     float64        `json:"final_score"`
	Recommendation Recommendation `json:"recommendation"`
	Risk           Risk           `json:"risk"`
}

// AnalysisResult is the terminal output of one analysis request
type AnalysisResult struct {
	AnalysisID     string          `json:"analysis_id,omitempty"`
	Ticker         string          `json:"ticker"`
	HorizonDays    int             `json:"horizon_days"`
	LastPrice      float64         `json:"last_price"`
	PredictedPrice float64         `json:"predicted_price"`
	PctChange      float64         `json:"pct_change"`
	StockScore     float64         `json:"stock_score"`
	TweetScore     float64         `json:"tweet_score"`
	FinalScore     float64         `json:"final_score"`
	Recommendation Recommendation  `json:"recommendation"`
	Risk           Risk            `json:"risk"`
	Metrics        AccuracyMetrics `json:"metrics"`
	Explanation    string          `json:"explanation"`
	// SentimentFallback names the fallback behind TweetScore, empty when computed
	SentimentFallback string          `json:"sentiment_fallback,omitempty"`
	Series            []ForecastPoint `json:"data"`
}
